package sysmem

import "github.com/pkg/errors"

// ErrInvalidBufferIndex is returned by Reader.Mapping for an index outside
// the pool.
var ErrInvalidBufferIndex = errors.New("buffer index out of range")

// A Reader wraps a negotiated buffer pool with per-buffer memory mappings.
// Every buffer is mapped at construction and the mappings stay valid for the
// reader's lifetime. The reader never inspects or validates buffer contents.
type Reader struct {
	settings BufferSettings
	mappings [][]byte
}

// NewReader maps every buffer in the collection up front.
func NewReader(settings BufferSettings, buffers []Buffer) (*Reader, error) {
	mappings := make([][]byte, 0, len(buffers))
	for i, buf := range buffers {
		m, err := buf.Map()
		if err != nil {
			return nil, errors.Wrapf(err, "mapping buffer %d", i)
		}
		mappings = append(mappings, m)
	}
	return &Reader{settings: settings, mappings: mappings}, nil
}

// BufferCount returns the number of buffers in the collection.
func (r *Reader) BufferCount() int {
	return len(r.mappings)
}

// Mapping returns the memory mapped for the buffer at index.
func (r *Reader) Mapping(index int) ([]byte, error) {
	if index < 0 || index >= len(r.mappings) {
		return nil, errors.Wrapf(ErrInvalidBufferIndex, "index %d with %d buffers", index, len(r.mappings))
	}
	return r.mappings[index], nil
}

// Settings returns the negotiated settings the pool was allocated with.
func (r *Reader) Settings() BufferSettings {
	return r.settings
}
