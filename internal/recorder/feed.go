package recorder

import (
	"context"
	"sync"
	"time"
)

// FeedRecorder is a Recorder backed by samples the mobile app records on
// the device and pushes over HTTP. Each pushed sample is consumed by at
// most one capture; a cycle with no fresh sample skips.
type FeedRecorder struct {
	mu     sync.Mutex
	sample []byte
}

func NewFeedRecorder() *FeedRecorder {
	return &FeedRecorder{}
}

// Push stores the freshest sample, replacing any unconsumed one. A cycle
// only ever needs the latest audio, so older samples are dropped.
func (f *FeedRecorder) Push(sample []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sample = sample
}

// Probe always succeeds: microphone permission is checked on the device
// before the app starts pushing samples.
func (f *FeedRecorder) Probe(ctx context.Context) error {
	return nil
}

// Capture returns the pending sample, or ErrNoSample when the app has not
// pushed since the last cycle.
func (f *FeedRecorder) Capture(ctx context.Context, d time.Duration) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sample == nil {
		return nil, ErrNoSample
	}
	sample := f.sample
	f.sample = nil
	return sample, nil
}
