package videotest_test

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"
	"go.viam.com/test"

	"github.com/edaniels/gocapture"
	"github.com/edaniels/gocapture/camera"
	"github.com/edaniels/gocapture/videotest"
)

type collectedFrame struct {
	data        []byte
	format      prop.Video
	timestamp   time.Duration
	visibleRect image.Rectangle
	metadata    gocapture.FrameMetadata
}

type collectClient struct {
	started chan struct{}
	frames  chan collectedFrame
	errs    chan *gocapture.CaptureError
}

func newCollectClient() *collectClient {
	return &collectClient{
		started: make(chan struct{}),
		frames:  make(chan collectedFrame, 32),
		errs:    make(chan *gocapture.CaptureError, 1),
	}
}

func (c *collectClient) OnStarted() {
	close(c.started)
}

func (c *collectClient) ReserveOutputBuffer(
	size camera.Size, format frame.Format, feedbackID int,
) (gocapture.OutputBuffer, bool) {
	return make(gocapture.ByteBuffer, size.Width*size.Height*3/2), true
}

func (c *collectClient) OnIncomingFrame(
	buf gocapture.OutputBuffer,
	format prop.Video,
	colorSpace gocapture.ColorSpace,
	referenceTime time.Time,
	timestamp time.Duration,
	visibleRect image.Rectangle,
	metadata gocapture.FrameMetadata,
) {
	select {
	case c.frames <- collectedFrame{
		data:        buf.Bytes(),
		format:      format,
		timestamp:   timestamp,
		visibleRect: visibleRect,
		metadata:    metadata,
	}:
	default:
	}
}

func (c *collectClient) OnError(err *gocapture.CaptureError) {
	c.errs <- err
}

func TestSyntheticCameraCapture(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cam := videotest.New(videotest.Config{
		Width:     64,
		Height:    48,
		FrameRate: 120,
		Logger:    logger,
	})
	defer cam.Close()

	dev := gocapture.NewDevice(cam, cam.Allocator(), gocapture.DeviceConfig{Logger: logger})
	defer func() {
		test.That(t, dev.Close(context.Background()), test.ShouldBeNil)
	}()

	client := newCollectClient()
	dev.Start(gocapture.StartParams{
		RequestedFormat: prop.Video{FrameFormat: frame.FormatI420},
	}, client)

	select {
	case <-client.started:
	case err := <-client.errs:
		t.Fatalf("capture failed to start: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for capture to start")
	}

	var frames []collectedFrame
	for len(frames) < 5 {
		select {
		case f := <-client.frames:
			frames = append(frames, f)
		case err := <-client.errs:
			t.Fatalf("capture error: %v", err)
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out after %d frames", len(frames))
		}
	}
	dev.Stop()

	for i, f := range frames {
		test.That(t, f.format.Width, test.ShouldEqual, 64)
		test.That(t, f.format.Height, test.ShouldEqual, 48)
		test.That(t, f.format.FrameFormat, test.ShouldEqual, frame.FormatI420)
		test.That(t, f.visibleRect, test.ShouldResemble, image.Rect(0, 0, 64, 48))
		test.That(t, len(f.data), test.ShouldEqual, 64*48*3/2)
		if i > 0 {
			prev := frames[i-1]
			test.That(t, f.timestamp, test.ShouldBeGreaterThan, prev.timestamp)
			test.That(t, f.metadata.FramesReceived, test.ShouldEqual, prev.metadata.FramesReceived+1)
			// The rolling pattern changes every frame.
			test.That(t, f.data[0], test.ShouldNotEqual, prev.data[0])
		}
	}
}

func TestSyntheticCameraRejectsNonI420Request(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cam := videotest.New(videotest.Config{Logger: logger})
	defer cam.Close()

	dev := gocapture.NewDevice(cam, cam.Allocator(), gocapture.DeviceConfig{Logger: logger})
	defer func() {
		test.That(t, dev.Close(context.Background()), test.ShouldBeNil)
	}()

	client := newCollectClient()
	dev.Start(gocapture.StartParams{
		RequestedFormat: prop.Video{FrameFormat: frame.FormatYUY2},
	}, client)

	select {
	case err := <-client.errs:
		test.That(t, err.Kind, test.ShouldEqual, gocapture.ErrorUnsupportedPixelFormat)
	case <-client.started:
		t.Fatal("capture unexpectedly started")
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}
