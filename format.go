package gocapture

import (
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"

	"github.com/edaniels/gocapture/camera"
	"github.com/edaniels/gocapture/sysmem"
)

// roundUp rounds value up to the nearest multiple of alignment.
func roundUp(value, alignment int) int {
	if alignment <= 1 {
		return value
	}
	return (value + alignment - 1) / alignment * alignment
}

// codedGeometry is the physical layout of one buffer in the active pool:
// the coded dimensions including padding, and the luma row stride.
type codedGeometry struct {
	width  int
	height int
	stride int
}

// codedGeometryFor derives the coded frame dimensions from the negotiated
// constraints. This must match how the allocation service itself sizes the
// buffers: the larger of the minimum and required maximum in each axis,
// rounded up to the divisor, with the stride additionally covering at least
// the coded width and the minimum bytes per row.
func codedGeometryFor(c *sysmem.ImageFormatConstraints) codedGeometry {
	width := roundUp(max(c.MinCodedWidth, c.RequiredMaxCodedWidth), c.CodedWidthDivisor)
	height := roundUp(max(c.MinCodedHeight, c.RequiredMaxCodedHeight), c.CodedHeightDivisor)
	stride := roundUp(max(c.MinBytesPerRow, width), c.BytesPerRowDivisor)
	return codedGeometry{width: width, height: height, stride: stride}
}

// evenCeil rounds both dimensions up to even values. The converted output
// is always even-sized since chroma is subsampled at 2x in both axes.
func evenCeil(size camera.Size) camera.Size {
	return camera.Size{Width: (size.Width + 1) &^ 1, Height: (size.Height + 1) &^ 1}
}

// captureFormat is the canonical format of delivered frames: even output
// size, running frame rate estimate, I420.
func captureFormat(size camera.Size, frameRate float32) prop.Video {
	return prop.Video{
		Width:       size.Width,
		Height:      size.Height,
		FrameRate:   frameRate,
		FrameFormat: frame.FormatI420,
	}
}
