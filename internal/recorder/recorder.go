// Package recorder provides the audio capture capability consumed by the
// session engine: capture a short sample, return raw bytes or fail.
package recorder

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPermissionDenied means the capture capability is not granted.
	// Fatal to session start, never fatal mid-session.
	ErrPermissionDenied = errors.New("recorder: capture permission denied")

	// ErrNoSample means no audio is available for this cycle.
	ErrNoSample = errors.New("recorder: no sample available")
)

// Recorder captures short audio samples from a microphone source.
type Recorder interface {
	// Probe checks that capture is possible at all. Called once at
	// session start.
	Probe(ctx context.Context) error

	// Capture records up to d of audio and returns the raw bytes.
	Capture(ctx context.Context, d time.Duration) ([]byte, error)
}
