package gocapture

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"

	"github.com/edaniels/gocapture/camera"
	"github.com/edaniels/gocapture/sysmem"
	"github.com/edaniels/gocapture/yuv"
)

type deviceState int

const (
	deviceStopped deviceState = iota
	deviceStarting
	deviceStarted
	deviceError
)

func (s deviceState) String() string {
	switch s {
	case deviceStopped:
		return "Stopped"
	case deviceStarting:
		return "Starting"
	case deviceStarted:
		return "Started"
	case deviceError:
		return "Error"
	default:
		return "Unknown"
	}
}

// A DeviceConfig describes how a capture device should be managed.
type DeviceConfig struct {
	Logger golog.Logger
}

// StartParams carry the client's capture request. RequestedFormat's
// FrameFormat must be I420, the only output format produced.
type StartParams struct {
	RequestedFormat prop.Video
}

// A Device is the top-level capture state machine. It coordinates the
// stream controller and buffer collection negotiator and runs the per-frame
// pipeline, delivering converted frames to a Client.
//
// All state below the sequence is confined to it; the services and the
// public Start/Stop surface reach it only through posted tasks, so there is
// no cross-goroutine mutation anywhere in the pipeline.
type Device struct {
	cam    camera.Device
	alloc  sysmem.Allocator
	logger golog.Logger
	seq    *sequence

	state      deviceState
	client     Client
	controller *streamController
	neg        *negotiator

	// gen is bumped on every stream teardown; callbacks issued against an
	// older generation are dropped instead of touching device state.
	gen int

	startTime      time.Time
	framesReceived int
	deviceGone     bool

	closeOnce sync.Once
}

// NewDevice returns a capture device for the given camera and allocation
// service. The device owns a dispatch sequence from creation until Close.
func NewDevice(cam camera.Device, alloc sysmem.Allocator, config DeviceConfig) *Device {
	logger := config.Logger
	if logger == nil {
		logger = Logger
	}
	d := &Device{
		cam:    cam,
		alloc:  alloc,
		logger: logger,
		seq:    newSequence(),
	}
	d.neg = newNegotiator(d, alloc)
	d.controller = newStreamController(d, d.neg)

	cam.WatchError(func(err error) {
		d.seq.post(func() {
			d.deviceGone = true
			if d.state == deviceStarting || d.state == deviceStarted {
				d.onFatal(captureErrorf(ErrorDeviceDisconnected, "camera device disconnected: %s", err))
			}
		})
	})
	return d
}

// postGen schedules task on the device sequence, dropping it if the stream
// generation it was issued against has been torn down since.
func (d *Device) postGen(gen int, task func()) {
	d.seq.post(func() {
		if d.gen != gen {
			return
		}
		task()
	})
}

// Start begins capturing into the given client. Faults are reported through
// the client's error channel, never synchronously.
func (d *Device) Start(params StartParams, client Client) {
	d.seq.post(func() {
		d.doStart(params, client)
	})
}

func (d *Device) doStart(params StartParams, client Client) {
	if d.state != deviceStopped {
		d.logger.Warnw("ignoring Start on device that is not stopped", "state", d.state)
		return
	}
	d.client = client
	d.state = deviceStarting

	if params.RequestedFormat.FrameFormat != frame.FormatI420 {
		d.onFatal(captureErrorf(ErrorUnsupportedPixelFormat,
			"requested pixel format %q; only %q output is supported",
			params.RequestedFormat.FrameFormat, frame.FormatI420))
		return
	}
	if d.deviceGone {
		d.onFatal(captureErrorf(ErrorDeviceDisconnected, "camera device disconnected"))
		return
	}

	d.startTime = time.Now()
	d.framesReceived = 0

	if err := d.controller.open(d.cam); err != nil {
		d.deviceGone = true
		d.onFatal(captureErrorf(ErrorDeviceDisconnected, "connecting to camera stream: %s", err))
	}
}

// Stop tears down the stream, buffer pool, and reader. It is idempotent and
// safe to call from any state; it returns once teardown has run.
func (d *Device) Stop() {
	d.seq.postWait(func() {
		d.teardownStream()
		d.client = nil
		d.state = deviceStopped
	})
}

// Close stops the device and shuts its dispatch sequence down. The device
// cannot be restarted afterwards.
func (d *Device) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.Stop()
		d.seq.close()
	})
	return nil
}

// teardownStream invalidates every pending service callback and releases
// the stream, pool, and reader. Idempotent; shared by Stop and onFatal.
func (d *Device) teardownStream() {
	d.gen++
	d.controller.teardown()
	d.neg.teardown()
}

// onFatal tears the stream down and reports the fault to the client exactly
// once. Nothing is delivered afterwards; resuming requires Stop then Start.
func (d *Device) onFatal(cerr *CaptureError) {
	if d.state == deviceError {
		return
	}
	d.logger.Errorw("fatal capture error",
		"kind", cerr.Kind, "location", cerr.Location, "reason", cerr.Reason)
	d.teardownStream()
	d.state = deviceError
	if d.client != nil {
		d.client.OnError(cerr)
	}
}

// onNegotiated runs when the first buffer collection round of a stream
// lifetime completes: the client learns capture has started and the pull
// loop begins.
func (d *Device) onNegotiated() {
	if d.state != deviceStarting {
		return
	}
	d.state = deviceStarted
	d.client.OnStarted()
	d.controller.receiveNextFrame()
}

// processFrame runs the per-frame pipeline: validate the descriptor against
// the active pool, compute the capture format, reserve client memory,
// convert, and deliver.
func (d *Device) processFrame(info camera.FrameInfo) {
	if d.state != deviceStarted {
		return
	}
	d.framesReceived++

	rdr := d.neg.reader()
	if rdr == nil {
		// Stream start raced negotiation; expected, not a fault.
		d.logger.Warnw("dropping frame received before buffer collection is ready",
			"buffer_index", info.BufferIndex)
		return
	}
	if info.BufferIndex < 0 || info.BufferIndex >= rdr.BufferCount() {
		d.onFatal(captureErrorf(ErrorInvalidBufferIndex,
			"received frame with buffer index %d; pool has %d buffers",
			info.BufferIndex, rdr.BufferCount()))
		return
	}

	constraints := rdr.Settings().ImageFormat
	geom := codedGeometryFor(constraints)
	visible := d.controller.visibleSize(camera.Size{Width: geom.width, Height: geom.height})
	outputSize := evenCeil(visible)

	referenceTime := info.Timestamp
	timestamp := referenceTime.Sub(d.startTime)
	if timestamp < 0 {
		timestamp = 0
	}
	var frameRate float32
	if timestamp > 0 {
		frameRate = float32(d.framesReceived) / float32(timestamp.Seconds())
	}
	format := captureFormat(outputSize, frameRate)

	buf, ok := d.client.ReserveOutputBuffer(outputSize, frame.FormatI420, 0)
	if !ok {
		// Backpressure from the client is expected flow control.
		d.logger.Debugw("client has no output buffer available; dropping frame",
			"buffer_index", info.BufferIndex)
		return
	}

	src, err := rdr.Mapping(info.BufferIndex)
	if err != nil || len(src) == 0 {
		d.onFatal(captureErrorf(ErrorFailedToMapBuffer, "no mapping for buffer %d", info.BufferIndex))
		return
	}
	if minSize := geom.height * geom.stride * 3 / 2; len(src) < minSize {
		d.onFatal(captureErrorf(ErrorBufferTooSmall,
			"buffer %d holds %d bytes; coded %dx%d at stride %d needs %d",
			info.BufferIndex, len(src), geom.width, geom.height, geom.stride, minSize))
		return
	}

	if err := yuv.ConvertToI420(
		src, constraints.PixelFormat, geom.stride, geom.height,
		buf.Bytes(), outputSize.Width, outputSize.Height,
	); err != nil {
		if errors.Is(err, yuv.ErrUnsupportedFormat) {
			d.onFatal(captureErrorf(ErrorUnsupportedPixelFormat, "converting frame: %s", err))
		} else {
			d.onFatal(captureErrorf(ErrorBufferTooSmall, "converting frame: %s", err))
		}
		return
	}

	if Debug {
		d.logger.Debugw("delivering frame",
			"buffer_index", info.BufferIndex,
			"timestamp", timestamp,
			"frames_received", d.framesReceived)
	}
	d.client.OnIncomingFrame(
		buf,
		format,
		ColorSpaceUnspecified,
		referenceTime,
		timestamp,
		image.Rect(0, 0, visible.Width, visible.Height),
		FrameMetadata{FramesReceived: d.framesReceived},
	)
	// The pool buffer is handed back to the device implicitly once this
	// task returns; nothing retains the mapping.
}
