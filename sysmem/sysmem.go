// Package sysmem models the driver side of a shared memory buffer allocation
// service: negotiation tokens, pooled buffer collections, and the reader that
// maps a negotiated collection into the process.
package sysmem

import (
	"github.com/google/uuid"
	"github.com/pion/mediadevices/pkg/frame"
)

// A Token identifies one buffer collection negotiation round with the
// allocation service. The driver hands a fresh token to the stream; the
// stream returns it once the service is ready to negotiate.
type Token struct {
	ID uuid.UUID
}

// NewToken returns a fresh negotiation token.
func NewToken() Token {
	return Token{ID: uuid.New()}
}

// PoolConstraints describe what the driver needs from a buffer collection.
type PoolConstraints struct {
	// MinBufferCountForCamping is the number of buffers the driver may hold
	// on to at once.
	MinBufferCountForCamping int
}

// ImageFormatConstraints are the image format settings negotiated for a
// buffer collection. Immutable once received.
type ImageFormatConstraints struct {
	PixelFormat frame.Format

	MinCodedWidth          int
	MinCodedHeight         int
	RequiredMaxCodedWidth  int
	RequiredMaxCodedHeight int
	CodedWidthDivisor      int
	CodedHeightDivisor     int
	MinBytesPerRow         int
	BytesPerRowDivisor     int
}

// BufferSettings are the negotiated settings of an allocated pool. A pool
// allocated without image format constraints has a nil ImageFormat.
type BufferSettings struct {
	ImageFormat *ImageFormatConstraints
}

// An Allocator negotiates buffer pools on behalf of the driver.
type Allocator interface {
	CreateToken() Token

	// CreatePool allocates a buffer collection for the given token. It
	// completes asynchronously via done, possibly synchronously from within
	// the call itself.
	CreatePool(token Token, constraints PoolConstraints, done func(Pool, error))
}

// A Pool is an allocated buffer collection. It is owned by exactly one
// negotiation round; a new round replaces the pool wholesale.
type Pool interface {
	Settings() BufferSettings

	// CreateReader maps the pool's buffers into the process. It completes
	// asynchronously via done, possibly synchronously from within the call.
	CreateReader(done func(*Reader, error))

	// Close releases the collection back to the allocation service.
	Close() error
}

// A Buffer is a single shared memory region within a pool.
type Buffer interface {
	// Map exposes the region's memory. The returned slice stays valid until
	// the owning pool is closed.
	Map() ([]byte, error)
}
