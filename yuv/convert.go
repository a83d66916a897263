// Package yuv converts planar and semi-planar 4:2:0 camera buffers into the
// canonical I420 layout.
package yuv

import (
	"fmt"

	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pkg/errors"
)

// FormatYV12 is I420 with the chroma plane order reversed (V before U).
// mediadevices does not define a constant for it.
const FormatYV12 frame.Format = "YV12"

var (
	// ErrUnsupportedFormat is returned for any source format that is not
	// 4:2:0 subsampled I420, YV12, or NV12.
	ErrUnsupportedFormat = errors.New("unsupported source pixel format")

	// ErrSourceTooSmall is returned when the source span cannot hold the
	// coded frame.
	ErrSourceTooSmall = errors.New("source buffer too small for coded size")
)

// Supported reports whether ConvertToI420 accepts format as a source.
func Supported(format frame.Format) bool {
	switch format {
	case frame.FormatI420, FormatYV12, frame.FormatNV12:
		return true
	default:
		return false
	}
}

// ConvertToI420 copies the frame held in src, laid out as format with the
// given luma row stride and coded height, into dst as tightly packed
// width x height I420. width and height must already be rounded up to even
// values by the caller; for every supported format the chroma planes are
// subsampled at 2x in both directions, so the source must hold at least
// codedHeight*strideY*3/2 bytes. A destination smaller than
// width*height*3/2 bytes is a caller bug and panics before any write.
func ConvertToI420(src []byte, format frame.Format, strideY, codedHeight int, dst []byte, width, height int) error {
	if !Supported(format) {
		return errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
	srcSize := codedHeight * strideY * 3 / 2
	if len(src) < srcSize {
		return errors.Wrapf(ErrSourceTooSmall,
			"have %d bytes, %d coded rows at stride %d need %d", len(src), codedHeight, strideY, srcSize)
	}
	dstSize := width * height * 3 / 2
	if len(dst) < dstSize {
		panic(fmt.Sprintf("yuv: destination holds %d bytes; %dx%d I420 needs %d", len(dst), width, height, dstSize))
	}

	lumaSize := width * height
	chromaSize := lumaSize / 4
	dstY := dst[:lumaSize]
	dstU := dst[lumaSize : lumaSize+chromaSize]
	dstV := dst[lumaSize+chromaSize : dstSize]

	srcLumaSize := strideY * codedHeight
	copyPlane(dstY, width, src[:srcLumaSize], strideY, width, height)

	chromaWidth := width / 2
	chromaHeight := height / 2

	switch format {
	case frame.FormatI420, FormatYV12:
		strideC := strideY / 2
		planeSize := strideC * codedHeight / 2
		srcU := src[srcLumaSize : srcLumaSize+planeSize]
		srcV := src[srcLumaSize+planeSize : srcLumaSize+2*planeSize]
		if format == FormatYV12 {
			srcU, srcV = srcV, srcU
		}
		copyPlane(dstU, chromaWidth, srcU, strideC, chromaWidth, chromaHeight)
		copyPlane(dstV, chromaWidth, srcV, strideC, chromaWidth, chromaHeight)
	case frame.FormatNV12:
		srcUV := src[srcLumaSize : srcLumaSize+strideY*codedHeight/2]
		for row := 0; row < chromaHeight; row++ {
			uv := srcUV[row*strideY:]
			du := dstU[row*chromaWidth:]
			dv := dstV[row*chromaWidth:]
			for col := 0; col < chromaWidth; col++ {
				du[col] = uv[2*col]
				dv[col] = uv[2*col+1]
			}
		}
	}
	return nil
}

// copyPlane copies rows of copyWidth bytes between planes of differing
// strides.
func copyPlane(dst []byte, dstStride int, src []byte, srcStride, copyWidth, rows int) {
	for row := 0; row < rows; row++ {
		copy(dst[row*dstStride:row*dstStride+copyWidth], src[row*srcStride:])
	}
}
