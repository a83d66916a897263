// Package gocapture implements the driver side of a camera frame acquisition
// and buffer conversion pipeline. A capture device negotiates a shared memory
// buffer pool with an allocation service, pulls frames from a camera stream
// service, converts each frame into tightly packed I420, and hands the result
// to a capture client.
package gocapture

import "github.com/edaniels/golog"

// Debug controls whether per-frame delivery logging is on.
var Debug = false

// Logger is the global logger to use when not set in a config.
var Logger = golog.Global()
