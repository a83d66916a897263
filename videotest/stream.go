package videotest

import (
	"sync"
	"time"

	"go.viam.com/utils"

	"github.com/edaniels/gocapture/camera"
	"github.com/edaniels/gocapture/sysmem"
)

// stream is the synthetic camera's single hardware stream. It negotiates one
// buffer collection round at start and then serves paced frame requests.
type stream struct {
	cam *Camera

	mu             sync.Mutex
	pendingToken   *sysmem.Token
	resolutionSent bool
	frameCount     int
	closed         bool
}

func newStream(c *Camera) *stream {
	return &stream{cam: c}
}

func (s *stream) SetBufferCollection(token sysmem.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingToken = &token
}

func (s *stream) WatchBufferCollection(cb func(token sysmem.Token)) {
	s.mu.Lock()
	pending := s.pendingToken
	s.pendingToken = nil
	s.mu.Unlock()
	if pending != nil {
		// Constraints never change after start, so the watch fires exactly
		// once, synchronously, with the token the driver set.
		cb(*pending)
	}
}

func (s *stream) WatchResolution(cb func(size camera.Size)) {
	s.mu.Lock()
	sent := s.resolutionSent
	s.resolutionSent = true
	s.mu.Unlock()
	if !sent {
		cb(camera.Size{Width: s.cam.cfg.Width, Height: s.cam.cfg.Height})
	}
}

func (s *stream) GetNextFrame(cb func(info camera.FrameInfo)) {
	s.cam.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		if !utils.SelectContextOrWait(s.cam.cancelCtx, s.cam.interval()) {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		pool := s.cam.alloc.currentPool()
		if pool == nil {
			s.mu.Unlock()
			return
		}
		index := s.frameCount % pool.bufferCount()
		s.frameCount++
		seq := s.frameCount
		s.mu.Unlock()

		pool.fillPattern(index, seq)
		cb(camera.FrameInfo{BufferIndex: index, Timestamp: time.Now()})
	}, s.cam.activeBackgroundWorkers.Done)
}

// WatchError implements camera.Stream. The synthetic stream never
// disconnects.
func (s *stream) WatchError(func(error)) {}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
