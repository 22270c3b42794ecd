package recorder

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ExecRecorder captures audio by shelling out to an external capture
// command, for headless deployments where the service itself records.
// The command receives the capture length in seconds via %d and must
// write raw audio to stdout, e.g.
//
//	ffmpeg -f pulse -i default -t %d -f mp3 -v quiet -
type ExecRecorder struct {
	command string
}

func NewExecRecorder(command string) *ExecRecorder {
	return &ExecRecorder{command: command}
}

// Probe verifies the capture binary exists on PATH.
func (r *ExecRecorder) Probe(ctx context.Context) error {
	if r.command == "" {
		return ErrPermissionDenied
	}
	bin := strings.Fields(r.command)[0]
	if _, err := exec.LookPath(bin); err != nil {
		return ErrPermissionDenied
	}
	return nil
}

// Capture runs the capture command for d and returns its stdout.
func (r *ExecRecorder) Capture(ctx context.Context, d time.Duration) ([]byte, error) {
	if r.command == "" {
		return nil, ErrPermissionDenied
	}

	seconds := int(d / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	// Allow the command a little slack beyond the capture length.
	ctx, cancel := context.WithTimeout(ctx, d+5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", r.commandLine(seconds))
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("recorder: capture command failed: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNoSample
	}
	return out, nil
}

// commandLine substitutes the capture length into the template. Commands
// without a %d verb run verbatim (the tool decides its own duration).
func (r *ExecRecorder) commandLine(seconds int) string {
	if strings.Contains(r.command, "%d") {
		return fmt.Sprintf(r.command, seconds)
	}
	return r.command
}
