package gocapture

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// ErrorKind classifies the fatal faults that terminate a capture stream.
type ErrorKind int

const (
	// ErrorUnknown is never reported; it marks the zero value.
	ErrorUnknown ErrorKind = iota
	// ErrorDeviceDisconnected indicates the camera device connection is gone.
	ErrorDeviceDisconnected
	// ErrorStreamDisconnected indicates the stream connection is gone.
	ErrorStreamDisconnected
	// ErrorMissingImageFormat indicates a buffer pool was allocated without
	// image format constraints.
	ErrorMissingImageFormat
	// ErrorUnsupportedPixelFormat indicates the negotiated or requested
	// pixel format is outside the supported set.
	ErrorUnsupportedPixelFormat
	// ErrorInvalidBufferIndex indicates a frame referenced a buffer outside
	// the active pool.
	ErrorInvalidBufferIndex
	// ErrorFailedToMapBuffer indicates a pool buffer had no usable mapping.
	ErrorFailedToMapBuffer
	// ErrorBufferTooSmall indicates a pool buffer cannot hold the coded
	// frame size.
	ErrorBufferTooSmall
	// ErrorAllocatorDisconnected indicates the allocation service failed or
	// went away mid-negotiation.
	ErrorAllocatorDisconnected
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorDeviceDisconnected:
		return "DeviceDisconnected"
	case ErrorStreamDisconnected:
		return "StreamDisconnected"
	case ErrorMissingImageFormat:
		return "MissingImageFormat"
	case ErrorUnsupportedPixelFormat:
		return "UnsupportedPixelFormat"
	case ErrorInvalidBufferIndex:
		return "InvalidBufferIndex"
	case ErrorFailedToMapBuffer:
		return "FailedToMapBuffer"
	case ErrorBufferTooSmall:
		return "BufferTooSmall"
	case ErrorAllocatorDisconnected:
		return "AllocationServiceDisconnected"
	default:
		return "Unknown"
	}
}

// A CaptureError is a fatal capture fault reported to the client exactly
// once, carrying where in the pipeline it was detected.
type CaptureError struct {
	Kind     ErrorKind
	Location string
	Reason   string
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Location, e.Reason)
}

// captureErrorf builds a CaptureError recording the caller's source
// location.
func captureErrorf(kind ErrorKind, format string, args ...interface{}) *CaptureError {
	location := "unknown"
	if _, file, line, ok := runtime.Caller(1); ok {
		location = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return &CaptureError{Kind: kind, Location: location, Reason: fmt.Sprintf(format, args...)}
}
