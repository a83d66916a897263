// Package videotest provides a synthetic camera device and allocation
// service that deliver generated I420 frames, for demos and tests that need
// a full capture pipeline without hardware.
package videotest

import (
	"context"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pkg/errors"

	"github.com/edaniels/gocapture/camera"
	"github.com/edaniels/gocapture/sysmem"
)

// A Config describes the synthetic camera.
type Config struct {
	Width       int
	Height      int
	BufferCount int
	FrameRate   float32
	PixelFormat frame.Format
	Logger      golog.Logger
}

// A Camera is a synthetic camera device with its own allocation service. It
// negotiates a buffer pool and then delivers a rolling test pattern on every
// frame request, paced at the configured rate.
type Camera struct {
	cfg    Config
	logger golog.Logger
	alloc  *allocator

	mu                      sync.Mutex
	closed                  bool
	cancelCtx               context.Context
	cancel                  func()
	activeBackgroundWorkers sync.WaitGroup
}

// New returns a running synthetic camera. Zero config fields default to
// 640x480 I420 at 30fps with a 2 buffer pool.
func New(config Config) *Camera {
	if config.Width == 0 {
		config.Width = 640
	}
	if config.Height == 0 {
		config.Height = 480
	}
	if config.BufferCount == 0 {
		config.BufferCount = 2
	}
	if config.FrameRate == 0 {
		config.FrameRate = 30
	}
	if config.PixelFormat == "" {
		config.PixelFormat = frame.FormatI420
	}
	if config.Logger == nil {
		config.Logger = golog.Global()
	}
	cancelCtx, cancel := context.WithCancel(context.Background())
	c := &Camera{
		cfg:       config,
		logger:    config.Logger,
		cancelCtx: cancelCtx,
		cancel:    cancel,
	}
	c.alloc = &allocator{cam: c}
	return c
}

// Allocator returns the camera's allocation service.
func (c *Camera) Allocator() sysmem.Allocator {
	return c.alloc
}

// ConnectToStream implements camera.Device.
func (c *Camera) ConnectToStream(id int) (camera.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errors.New("synthetic camera closed")
	}
	return newStream(c), nil
}

// WatchError implements camera.Device. The synthetic device never
// disconnects.
func (c *Camera) WatchError(func(error)) {}

// Close stops frame generation. Streams connected to the camera deliver no
// further frames.
func (c *Camera) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.activeBackgroundWorkers.Wait()
}

func (c *Camera) interval() time.Duration {
	return time.Duration(float64(time.Second) / float64(c.cfg.FrameRate))
}
