package gocapture

import (
	"image"
	"time"

	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"

	"github.com/edaniels/gocapture/camera"
)

// A ColorSpace identifies the color space frames are delivered in.
type ColorSpace int

const (
	// ColorSpaceUnspecified leaves interpretation to the client.
	ColorSpaceUnspecified ColorSpace = iota
	// ColorSpaceRec601 is ITU-R BT.601.
	ColorSpaceRec601
	// ColorSpaceRec709 is ITU-R BT.709.
	ColorSpaceRec709
)

// An OutputBuffer is client-owned memory a converted frame is written into.
// The device borrows it for exactly one conversion and never retains it
// across frames.
type OutputBuffer interface {
	Bytes() []byte
}

// ByteBuffer is a plain in-memory OutputBuffer.
type ByteBuffer []byte

// Bytes returns the underlying memory.
func (b ByteBuffer) Bytes() []byte {
	return b
}

// FrameMetadata accompanies each delivered frame.
type FrameMetadata struct {
	// FramesReceived is the number of frames received from the stream since
	// Start, including this one and any that were dropped.
	FramesReceived int
}

// A Client receives the output of a capture device. All methods are invoked
// from the device's dispatch sequence and must not block.
type Client interface {
	// OnStarted fires once per start cycle, after the first buffer
	// collection negotiation completes.
	OnStarted()

	// ReserveOutputBuffer requests memory for one converted frame of the
	// given size. Returning false signals backpressure; the frame is
	// dropped without error.
	ReserveOutputBuffer(size camera.Size, format frame.Format, feedbackID int) (OutputBuffer, bool)

	// OnIncomingFrame delivers a converted frame. The buffer is the one
	// returned from ReserveOutputBuffer; referenceTime is the hardware
	// capture time and timestamp its offset from the start of capture.
	OnIncomingFrame(
		buf OutputBuffer,
		format prop.Video,
		colorSpace ColorSpace,
		referenceTime time.Time,
		timestamp time.Duration,
		visibleRect image.Rectangle,
		metadata FrameMetadata,
	)

	// OnError reports a fatal capture fault. It fires at most once per
	// start cycle; no frames are delivered after it.
	OnError(err *CaptureError)
}
