package videotest

import (
	"sync"

	"github.com/edaniels/gocapture/sysmem"
)

// allocator is the synthetic camera's in-memory allocation service.
type allocator struct {
	cam *Camera

	mu   sync.Mutex
	pool *memPool
}

func (a *allocator) CreateToken() sysmem.Token {
	return sysmem.NewToken()
}

func (a *allocator) CreatePool(token sysmem.Token, constraints sysmem.PoolConstraints, done func(sysmem.Pool, error)) {
	cfg := a.cam.cfg
	count := cfg.BufferCount
	if constraints.MinBufferCountForCamping > count {
		count = constraints.MinBufferCountForCamping
	}

	stride := alignUp(cfg.Width, 16)
	codedHeight := alignUp(cfg.Height, 2)
	bufferSize := stride * codedHeight * 3 / 2

	pool := &memPool{
		settings: sysmem.BufferSettings{
			ImageFormat: &sysmem.ImageFormatConstraints{
				PixelFormat:        cfg.PixelFormat,
				MinCodedWidth:      cfg.Width,
				MinCodedHeight:     cfg.Height,
				CodedWidthDivisor:  2,
				CodedHeightDivisor: 2,
				MinBytesPerRow:     stride,
				BytesPerRowDivisor: 16,
			},
		},
		stride:      stride,
		codedHeight: codedHeight,
	}
	for i := 0; i < count; i++ {
		data := make([]byte, bufferSize)
		// Neutral chroma so an unfilled buffer reads as gray.
		for j := stride * codedHeight; j < bufferSize; j++ {
			data[j] = 128
		}
		pool.data = append(pool.data, data)
	}

	a.mu.Lock()
	a.pool = pool
	a.mu.Unlock()
	done(pool, nil)
}

func (a *allocator) currentPool() *memPool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pool
}

// memPool is an allocated in-memory buffer collection.
type memPool struct {
	settings    sysmem.BufferSettings
	data        [][]byte
	stride      int
	codedHeight int
}

func (p *memPool) Settings() sysmem.BufferSettings {
	return p.settings
}

func (p *memPool) CreateReader(done func(*sysmem.Reader, error)) {
	buffers := make([]sysmem.Buffer, 0, len(p.data))
	for _, d := range p.data {
		buffers = append(buffers, memBuffer(d))
	}
	done(sysmem.NewReader(p.settings, buffers))
}

func (p *memPool) Close() error {
	return nil
}

func (p *memPool) bufferCount() int {
	return len(p.data)
}

// fillPattern writes a rolling diagonal gradient into the luma plane of the
// buffer at index.
func (p *memPool) fillPattern(index, seq int) {
	data := p.data[index]
	for y := 0; y < p.codedHeight; y++ {
		row := data[y*p.stride : (y+1)*p.stride]
		for x := range row {
			row[x] = byte(x + y + seq*4)
		}
	}
}

// memBuffer is one shared memory region of a memPool.
type memBuffer []byte

func (b memBuffer) Map() ([]byte, error) {
	return b, nil
}

func alignUp(value, alignment int) int {
	return (value + alignment - 1) / alignment * alignment
}
