package browser

import (
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
)

func TestShouldBlock(t *testing.T) {
	set := blockSet([]string{"Fonts", " media ", "images"})

	tests := []struct {
		resType string
		want    bool
	}{
		{"Font", true},
		{"Media", true},
		{"Image", true},
		{"Stylesheet", false},
		{"Document", false},
		{"Script", false},
		{"XHR", false},
		{"Other", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shouldBlock(set, tt.resType), tt.resType)
	}
}

func TestShouldBlock_NeverBlocksScripts(t *testing.T) {
	set := blockSet([]string{"script", "document"})
	assert.False(t, shouldBlock(set, "Script"))
	assert.False(t, shouldBlock(set, "Document"))
}

func TestConfigDefaults(t *testing.T) {
	m := NewManager(Config{})
	assert.Equal(t, LevelHeadless, m.cfg.Stealth)
	assert.Equal(t, 4*time.Hour, m.cfg.RecycleInterval)
	assert.Equal(t, 60*time.Second, m.cfg.NavigationTimeout)
	assert.Equal(t, 500*time.Millisecond, m.cfg.IdleWindow)
	assert.Equal(t, "1280,800", m.cfg.WindowSize)
	assert.Equal(t, ":99", m.cfg.XvfbDisplay)
}

func TestParseStealth(t *testing.T) {
	assert.Equal(t, LevelHeadful, ParseStealth("headful"))
	assert.Equal(t, LevelHeadless, ParseStealth("headless"))
	assert.Equal(t, LevelHeadless, ParseStealth(""))
	assert.Equal(t, "headful", LevelHeadful.String())
}

func TestXvfbScreen(t *testing.T) {
	assert.Equal(t, "1280x800x24", xvfbScreen("1280,800"))
	assert.Equal(t, "1920x1080x24", xvfbScreen("bogus"))
}

func TestRecycleDue(t *testing.T) {
	m := NewManager(Config{RecycleInterval: time.Hour})
	start := time.Now()
	m.startAt = start

	// Not started.
	assert.False(t, m.recycleDue(start.Add(2*time.Hour)))

	m.browser = rod.New()
	assert.False(t, m.recycleDue(start.Add(30*time.Minute)))
	assert.True(t, m.recycleDue(start.Add(2*time.Hour)))

	m.active = 1
	assert.False(t, m.recycleDue(start.Add(2*time.Hour)), "open session blocks recycle")

	m.active = 0
	m.closed = true
	assert.False(t, m.recycleDue(start.Add(2*time.Hour)))
}

func TestAcquireRelease(t *testing.T) {
	m := NewManager(Config{})
	_, err := m.acquire()
	assert.Error(t, err, "not started")

	m.browser = rod.New()
	_, err = m.acquire()
	assert.NoError(t, err)
	assert.Equal(t, 1, m.Active())
	m.release()
	m.release()
	assert.Equal(t, 0, m.Active())

	m.closed = true
	_, err = m.acquire()
	assert.ErrorIs(t, err, ErrClosed)
}
