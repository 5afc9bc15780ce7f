package browser

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// xvfbScreen derives the virtual screen geometry from the window size.
func xvfbScreen(windowSize string) string {
	w, h, ok := strings.Cut(windowSize, ",")
	if !ok || w == "" || h == "" {
		return "1920x1080x24"
	}
	return strings.TrimSpace(w) + "x" + strings.TrimSpace(h) + "x24"
}

// startXvfb launches an Xvfb virtual display for headful mode.
func (m *Manager) startXvfb() error {
	if m.xvfb != nil {
		return nil
	}

	display := m.cfg.XvfbDisplay
	cmd := exec.Command("Xvfb", display, "-screen", "0", xvfbScreen(m.cfg.WindowSize), "-ac")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start xvfb: %w", err)
	}
	m.xvfb = cmd

	// Xvfb has no readiness signal.
	time.Sleep(500 * time.Millisecond)

	m.cfg.Logger.Info("browser: xvfb started", "display", display, "pid", cmd.Process.Pid)
	return nil
}

func (m *Manager) stopXvfb() {
	if m.xvfb == nil {
		return
	}
	if m.xvfb.Process != nil {
		_ = m.xvfb.Process.Kill()
		_ = m.xvfb.Wait()
	}
	m.cfg.Logger.Info("browser: xvfb stopped")
	m.xvfb = nil
}
