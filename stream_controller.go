package gocapture

import (
	"github.com/edaniels/gocapture/camera"
)

// A streamController owns the connection to one hardware stream: it opens
// the stream, keeps the resolution watch armed, and drives the pipelined
// frame pull loop. At most one stream is open per device at a time. All
// methods run on the device sequence.
type streamController struct {
	dev *Device
	neg *negotiator

	stream camera.Stream

	// frameSize is the visible resolution reported by the stream, nil until
	// the first watch result arrives.
	frameSize *camera.Size
}

func newStreamController(dev *Device, neg *negotiator) *streamController {
	return &streamController{dev: dev, neg: neg}
}

// open connects to the device's stream and kicks off the resolution watch
// and buffer collection negotiation.
func (sc *streamController) open(cam camera.Device) error {
	stream, err := cam.ConnectToStream(0)
	if err != nil {
		return err
	}
	sc.stream = stream

	gen := sc.dev.gen
	stream.WatchError(func(err error) {
		sc.dev.postGen(gen, func() {
			sc.dev.onFatal(captureErrorf(ErrorStreamDisconnected, "camera stream disconnected: %s", err))
		})
	})

	sc.watchResolution()
	sc.neg.start(stream)
	return nil
}

// watchResolution arms the level-triggered resolution watch; each result
// updates the visible size hint and re-arms the watch.
func (sc *streamController) watchResolution() {
	gen := sc.dev.gen
	sc.stream.WatchResolution(func(size camera.Size) {
		sc.dev.postGen(gen, func() {
			sc.frameSize = &size
			sc.watchResolution()
		})
	})
}

// receiveNextFrame drives the pull loop. The next request is issued before
// the received frame is processed so the device can fill the following
// buffer while conversion runs; frames are still processed, and therefore
// delivered, in arrival order.
func (sc *streamController) receiveNextFrame() {
	gen := sc.dev.gen
	sc.stream.GetNextFrame(func(info camera.FrameInfo) {
		sc.dev.postGen(gen, func() {
			sc.receiveNextFrame()
			sc.dev.processFrame(info)
		})
	})
}

// visibleSize returns the latest resolution hint, falling back to the coded
// size while none has arrived.
func (sc *streamController) visibleSize(coded camera.Size) camera.Size {
	if sc.frameSize != nil {
		return *sc.frameSize
	}
	return coded
}

// teardown closes the stream. Idempotent.
func (sc *streamController) teardown() {
	if sc.stream == nil {
		return
	}
	if err := sc.stream.Close(); err != nil {
		sc.dev.logger.Debugw("error closing stream", "error", err)
	}
	sc.stream = nil
	sc.frameSize = nil
}
