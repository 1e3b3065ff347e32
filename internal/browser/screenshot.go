package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"
)

var unsafeTagChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Screenshotter writes diagnostic screenshots named <tag>-<unix millis>.png.
// Screenshots are for offline debugging only; failures are logged and
// never returned.
type Screenshotter struct {
	Dir string
	now func() time.Time
}

// NewScreenshotter returns a Screenshotter writing into dir.
func NewScreenshotter(dir string) *Screenshotter {
	return &Screenshotter{Dir: dir, now: time.Now}
}

// Capture screenshots page and returns the file path, or "" if disabled or
// the capture failed.
func (s *Screenshotter) Capture(ctx context.Context, page Page, tag string) string {
	if s == nil || s.Dir == "" || page == nil {
		return ""
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		zap.L().Warn("browser: create screenshot dir", zap.String("dir", s.Dir), zap.Error(err))
		return ""
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	name := fmt.Sprintf("%s-%d.png", unsafeTagChars.ReplaceAllString(tag, "_"), now().UnixMilli())
	path := filepath.Join(s.Dir, name)
	if err := page.Screenshot(ctx, path); err != nil {
		zap.L().Warn("browser: screenshot failed", zap.String("tag", tag), zap.Error(err))
		return ""
	}
	zap.L().Info("browser: diagnostic screenshot saved", zap.String("path", path))
	return path
}
