package recorder

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFeedCaptureConsumesOnce(t *testing.T) {
	f := NewFeedRecorder()
	f.Push([]byte("sample-1"))

	got, err := f.Capture(context.Background(), 8*time.Second)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if string(got) != "sample-1" {
		t.Errorf("expected sample-1, got %s", got)
	}

	// Already consumed.
	_, err = f.Capture(context.Background(), 8*time.Second)
	if !errors.Is(err, ErrNoSample) {
		t.Fatalf("expected ErrNoSample, got %v", err)
	}
}

func TestFeedPushReplacesStaleSample(t *testing.T) {
	f := NewFeedRecorder()
	f.Push([]byte("stale"))
	f.Push([]byte("fresh"))

	got, err := f.Capture(context.Background(), 8*time.Second)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if string(got) != "fresh" {
		t.Errorf("expected the freshest sample, got %s", got)
	}
}

func TestFeedProbeAlwaysSucceeds(t *testing.T) {
	f := NewFeedRecorder()
	if err := f.Probe(context.Background()); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
}

func TestExecProbeMissingBinary(t *testing.T) {
	r := NewExecRecorder("definitely-not-a-real-binary-xyz -t %d")
	if err := r.Probe(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestExecCommandLine(t *testing.T) {
	r := NewExecRecorder("ffmpeg -f pulse -i default -t %d -f mp3 -v quiet -")
	if got := r.commandLine(8); got != "ffmpeg -f pulse -i default -t 8 -f mp3 -v quiet -" {
		t.Errorf("unexpected command line: %s", got)
	}

	// Templates without a duration verb run verbatim.
	r = NewExecRecorder("parec --format=s16le")
	if got := r.commandLine(8); got != "parec --format=s16le" {
		t.Errorf("expected the command untouched, got %s", got)
	}
}

func TestExecEmptyCommand(t *testing.T) {
	r := NewExecRecorder("")
	if err := r.Probe(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if _, err := r.Capture(context.Background(), time.Second); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}
