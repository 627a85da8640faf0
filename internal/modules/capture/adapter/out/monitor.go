package out

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	apperrors "meetcap/internal/platform/errors"
)

// commandRunner runs an external probe and returns its stdout. It is a
// variable on the monitors so tests can feed canned output.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w: %w", name, apperrors.ErrProbeUnsupported, err)
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// pgrepRunning interprets `pgrep -x name`: exit status 1 means no match.
func pgrepRunning(ctx context.Context, run commandRunner, name string) (bool, error) {
	out, err := run(ctx, "pgrep", "-x", name)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return false, nil
		}
		return false, err
	}
	return len(bytes.TrimSpace(out)) > 0, nil
}

// parseWmctrlList extracts titles from `wmctrl -l` lines of the form
// "<window id> <desktop> <host> <title...>". Windows on desktop -1 are
// sticky panels and docks.
func parseWmctrlList(out []byte) []string {
	var titles []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[1] == "-1" {
			continue
		}
		rest := line
		for i := 0; i < 3; i++ {
			rest = strings.TrimLeft(rest, " \t")
			if i := strings.IndexAny(rest, " \t"); i >= 0 {
				rest = rest[i:]
			}
		}
		if title := strings.TrimSpace(rest); title != "" {
			titles = append(titles, title)
		}
	}
	return titles
}

// parseOSAScriptList splits the flattened list printed by System Events:
// "a, b, , c". Empty names are dropped.
func parseOSAScriptList(out []byte) []string {
	var titles []string
	for _, part := range strings.Split(strings.TrimSpace(string(out)), ", ") {
		if title := strings.TrimSpace(part); title != "" {
			titles = append(titles, title)
		}
	}
	return titles
}

// parseTasklist reports whether `tasklist /FI "IMAGENAME eq <image>" /NH`
// listed the image. A miss prints an INFO line instead.
func parseTasklist(out []byte, image string) bool {
	image = strings.ToLower(image)
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(strings.ToLower(line))
		if len(fields) > 0 && fields[0] == image {
			return true
		}
	}
	return false
}
