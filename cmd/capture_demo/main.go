package main

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/edaniels/gocapture"
	"github.com/edaniels/gocapture/camera"
	"github.com/edaniels/gocapture/videotest"
)

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

var logger = golog.NewDebugLogger("capture_demo")

// Arguments for the command.
type Arguments struct {
	Frames int `flag:"frames,default=90,usage=frames to capture before exiting"`
	Width  int `flag:"width,default=640,usage=capture width"`
	Height int `flag:"height,default=480,usage=capture height"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	cam := videotest.New(videotest.Config{
		Width:  argsParsed.Width,
		Height: argsParsed.Height,
		Logger: logger,
	})
	defer cam.Close()

	dev := gocapture.NewDevice(cam, cam.Allocator(), gocapture.DeviceConfig{Logger: logger})
	client := &loggingClient{
		logger: logger,
		limit:  argsParsed.Frames,
		done:   make(chan struct{}),
	}
	dev.Start(gocapture.StartParams{
		RequestedFormat: prop.Video{FrameFormat: frame.FormatI420},
	}, client)

	select {
	case <-ctx.Done():
	case <-client.done:
	}
	dev.Stop()
	return multierr.Combine(dev.Close(ctx), client.err())
}

// loggingClient counts delivered frames and logs a sample of them.
type loggingClient struct {
	logger golog.Logger
	limit  int

	mu         sync.Mutex
	frames     int
	captureErr error
	done       chan struct{}
	doneOnce   sync.Once
}

func (c *loggingClient) OnStarted() {
	c.logger.Infow("capture started")
}

func (c *loggingClient) ReserveOutputBuffer(
	size camera.Size, format frame.Format, feedbackID int,
) (gocapture.OutputBuffer, bool) {
	return make(gocapture.ByteBuffer, size.Width*size.Height*3/2), true
}

func (c *loggingClient) OnIncomingFrame(
	buf gocapture.OutputBuffer,
	format prop.Video,
	colorSpace gocapture.ColorSpace,
	referenceTime time.Time,
	timestamp time.Duration,
	visibleRect image.Rectangle,
	metadata gocapture.FrameMetadata,
) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames++
	if c.frames%30 == 1 {
		c.logger.Infow("frame",
			"n", c.frames,
			"size", visibleRect.Max,
			"timestamp", timestamp,
			"frame_rate", format.FrameRate)
	}
	if c.frames >= c.limit {
		c.doneOnce.Do(func() { close(c.done) })
	}
}

func (c *loggingClient) OnError(err *gocapture.CaptureError) {
	c.mu.Lock()
	c.captureErr = err
	c.mu.Unlock()
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *loggingClient) err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.captureErr == nil {
		return nil
	}
	return c.captureErr
}
