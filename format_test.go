package gocapture

import (
	"testing"

	"github.com/pion/mediadevices/pkg/frame"
	"go.viam.com/test"

	"github.com/edaniels/gocapture/camera"
	"github.com/edaniels/gocapture/sysmem"
)

func TestRoundUp(t *testing.T) {
	test.That(t, roundUp(0, 16), test.ShouldEqual, 0)
	test.That(t, roundUp(1, 16), test.ShouldEqual, 16)
	test.That(t, roundUp(16, 16), test.ShouldEqual, 16)
	test.That(t, roundUp(17, 16), test.ShouldEqual, 32)
	test.That(t, roundUp(5, 1), test.ShouldEqual, 5)
	test.That(t, roundUp(5, 0), test.ShouldEqual, 5)
}

func TestCodedGeometryFor(t *testing.T) {
	geom := codedGeometryFor(&sysmem.ImageFormatConstraints{
		PixelFormat:        frame.FormatI420,
		MinCodedWidth:      640,
		MinCodedHeight:     480,
		CodedWidthDivisor:  2,
		CodedHeightDivisor: 2,
		MinBytesPerRow:     640,
		BytesPerRowDivisor: 16,
	})
	test.That(t, geom, test.ShouldResemble, codedGeometry{width: 640, height: 480, stride: 640})

	// The required maximum dominates the minimum, and the stride covers both
	// the coded width and the minimum bytes per row.
	geom = codedGeometryFor(&sysmem.ImageFormatConstraints{
		PixelFormat:            frame.FormatNV12,
		MinCodedWidth:          600,
		MinCodedHeight:         400,
		RequiredMaxCodedWidth:  1280,
		RequiredMaxCodedHeight: 720,
		CodedWidthDivisor:      8,
		CodedHeightDivisor:     8,
		MinBytesPerRow:         1300,
		BytesPerRowDivisor:     256,
	})
	test.That(t, geom, test.ShouldResemble, codedGeometry{width: 1280, height: 720, stride: 1536})

	geom = codedGeometryFor(&sysmem.ImageFormatConstraints{
		PixelFormat:        frame.FormatI420,
		MinCodedWidth:      33,
		MinCodedHeight:     17,
		CodedWidthDivisor:  4,
		CodedHeightDivisor: 2,
	})
	test.That(t, geom, test.ShouldResemble, codedGeometry{width: 36, height: 18, stride: 36})
}

func TestEvenCeil(t *testing.T) {
	test.That(t, evenCeil(camera.Size{Width: 639, Height: 479}), test.ShouldResemble, camera.Size{Width: 640, Height: 480})
	test.That(t, evenCeil(camera.Size{Width: 640, Height: 480}), test.ShouldResemble, camera.Size{Width: 640, Height: 480})
	test.That(t, evenCeil(camera.Size{Width: 1, Height: 1}), test.ShouldResemble, camera.Size{Width: 2, Height: 2})
	test.That(t, evenCeil(camera.Size{}), test.ShouldResemble, camera.Size{})
}

func TestCaptureFormat(t *testing.T) {
	format := captureFormat(camera.Size{Width: 320, Height: 240}, 29.97)
	test.That(t, format.Width, test.ShouldEqual, 320)
	test.That(t, format.Height, test.ShouldEqual, 240)
	test.That(t, format.FrameRate, test.ShouldEqual, float32(29.97))
	test.That(t, format.FrameFormat, test.ShouldEqual, frame.FormatI420)
}
