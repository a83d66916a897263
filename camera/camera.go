// Package camera defines the consumed boundary to the camera device and
// stream service the capture pipeline pulls frames from.
package camera

import (
	"time"

	"github.com/edaniels/gocapture/sysmem"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  int
	Height int
}

// FrameInfo identifies a newly filled buffer in the active pool along with
// the hardware capture timestamp. It is transient: the buffer index is only
// meaningful against the pool that was active when the frame was delivered.
type FrameInfo struct {
	BufferIndex int
	Timestamp   time.Time
}

// A Device is a connection to one camera exposed by the stream service.
type Device interface {
	// ConnectToStream opens the stream with the given id. It fails if the
	// device connection is already gone.
	ConnectToStream(id int) (Stream, error)

	// WatchError registers a handler for device transport loss. The handler
	// may fire from any goroutine.
	WatchError(func(error))
}

// A Stream is a live connection to one hardware stream. All watch methods
// are level-triggered: the callback fires once per new value and must be
// re-issued by the caller to observe the next one. Callbacks may fire from
// any goroutine, including synchronously from the registering call.
type Stream interface {
	// SetBufferCollection hands the stream a fresh negotiation token,
	// signaling interest in buffer collection negotiation. The token comes
	// back through WatchBufferCollection when the service wants a round.
	SetBufferCollection(token sysmem.Token)

	// WatchBufferCollection fires whenever a new buffer collection must be
	// negotiated, at stream start and again on constraint changes.
	WatchBufferCollection(func(token sysmem.Token))

	// WatchResolution fires when the visible frame resolution changes.
	WatchResolution(func(size Size))

	// GetNextFrame delivers the next captured frame.
	GetNextFrame(func(info FrameInfo))

	// WatchError registers a handler for stream transport loss.
	WatchError(func(error))

	// Close tears the stream connection down.
	Close() error
}
