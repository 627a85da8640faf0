package out

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"meetcap/internal/modules/capture/domain"
	captureout "meetcap/internal/modules/capture/port/out"
)

// OSLauncher hands the client launch link to the operating system URL
// handler and does not wait for the client.
type OSLauncher struct{}

func NewOSLauncher() captureout.Launcher {
	return &OSLauncher{}
}

func (l *OSLauncher) Launch(_ context.Context, joinURL string) error {
	target := domain.LaunchURL(joinURL)
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	case "darwin":
		cmd = exec.Command("open", target)
	case "linux":
		cmd = exec.Command("xdg-open", target)
	default:
		return fmt.Errorf("launching meeting links is not supported on %s", runtime.GOOS)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch meeting client: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// NoopLauncher is used when the client is started by hand (run --no-launch).
type NoopLauncher struct{}

func (NoopLauncher) Launch(context.Context, string) error {
	return nil
}
