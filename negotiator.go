package gocapture

import (
	"github.com/edaniels/gocapture/camera"
	"github.com/edaniels/gocapture/sysmem"
	"github.com/edaniels/gocapture/yuv"
)

type negotiationState int

const (
	negotiationIdle negotiationState = iota
	negotiationAwaitingToken
	negotiationAllocating
	negotiationReady
)

func (s negotiationState) String() string {
	switch s {
	case negotiationIdle:
		return "Idle"
	case negotiationAwaitingToken:
		return "AwaitingToken"
	case negotiationAllocating:
		return "Allocating"
	case negotiationReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// A negotiator drives buffer collection negotiation with the allocation
// service: it issues tokens to the stream, allocates a pool each time the
// stream signals a new round, and owns the resulting pool and reader
// exclusively. The rest of the pipeline reaches the reader only through the
// reader accessor, so a pool swap can never leave a dangling reference.
// All methods run on the device sequence.
type negotiator struct {
	dev   *Device
	alloc sysmem.Allocator

	state negotiationState
	pool  sysmem.Pool
	rdr   *sysmem.Reader

	// started records whether this stream lifetime has signaled OnStarted
	// and kicked the frame pull loop; that happens exactly once even when
	// further negotiation rounds replace the pool.
	started bool
}

func newNegotiator(dev *Device, alloc sysmem.Allocator) *negotiator {
	return &negotiator{dev: dev, alloc: alloc}
}

// reader returns the active frame buffer reader, or nil while no round has
// completed or a pool swap is in progress.
func (n *negotiator) reader() *sysmem.Reader {
	return n.rdr
}

// start issues a fresh token to the stream and begins watching for
// negotiation rounds.
func (n *negotiator) start(stream camera.Stream) {
	stream.SetBufferCollection(n.alloc.CreateToken())
	n.state = negotiationAwaitingToken
	n.watch(stream)
}

// watch arms the level-triggered collection watch. The callback re-arms it,
// so each new round is observed for the lifetime of the stream.
func (n *negotiator) watch(stream camera.Stream) {
	gen := n.dev.gen
	stream.WatchBufferCollection(func(token sysmem.Token) {
		n.dev.postGen(gen, func() {
			n.onToken(token)
			n.watch(stream)
		})
	})
}

func (n *negotiator) onToken(token sysmem.Token) {
	// Drop the old pool and reader before anything else so no in-flight
	// frame can be processed against a superseded collection.
	n.teardownPool()
	n.state = negotiationAllocating

	// Request a single buffer for camping: every frame is copied out
	// synchronously, so the device never holds more than one.
	constraints := sysmem.PoolConstraints{MinBufferCountForCamping: 1}
	gen := n.dev.gen
	n.alloc.CreatePool(token, constraints, func(pool sysmem.Pool, err error) {
		n.dev.postGen(gen, func() {
			n.onPoolCreated(pool, err)
		})
	})
}

func (n *negotiator) onPoolCreated(pool sysmem.Pool, err error) {
	if err != nil {
		n.dev.onFatal(captureErrorf(ErrorAllocatorDisconnected, "creating buffer pool: %s", err))
		return
	}
	n.pool = pool
	gen := n.dev.gen
	pool.CreateReader(func(rdr *sysmem.Reader, err error) {
		n.dev.postGen(gen, func() {
			n.onReaderCreated(rdr, err)
		})
	})
}

func (n *negotiator) onReaderCreated(rdr *sysmem.Reader, err error) {
	if err != nil {
		n.dev.onFatal(captureErrorf(ErrorAllocatorDisconnected, "creating buffer reader: %s", err))
		return
	}
	settings := rdr.Settings()
	if settings.ImageFormat == nil {
		n.dev.onFatal(captureErrorf(ErrorMissingImageFormat, "buffer pool allocated without image format constraints"))
		return
	}
	if !yuv.Supported(settings.ImageFormat.PixelFormat) {
		n.dev.onFatal(captureErrorf(ErrorUnsupportedPixelFormat,
			"negotiated pixel format %q is unsupported", settings.ImageFormat.PixelFormat))
		return
	}

	n.rdr = rdr
	n.state = negotiationReady
	n.dev.logger.Debugw("buffer collection negotiated",
		"buffers", rdr.BufferCount(), "pixel_format", settings.ImageFormat.PixelFormat)

	if !n.started {
		n.started = true
		n.dev.onNegotiated()
	}
}

// teardownPool atomically discards the reader and releases the pool.
func (n *negotiator) teardownPool() {
	n.rdr = nil
	if n.pool != nil {
		if err := n.pool.Close(); err != nil {
			n.dev.logger.Debugw("error closing buffer pool", "error", err)
		}
		n.pool = nil
	}
}

// teardown resets the negotiator for the next stream lifetime.
func (n *negotiator) teardown() {
	n.teardownPool()
	n.state = negotiationIdle
	n.started = false
}
