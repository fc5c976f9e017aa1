package media

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_UploadAndDelete(t *testing.T) {
	s := tempStore(t, 0)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	has := func(want string) func() bool {
		return func() bool {
			mu.Lock()
			defer mu.Unlock()
			for _, e := range events {
				if e == want {
					return true
				}
			}
			return false
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, s.Root(), logger, func(kind, name string) {
			mu.Lock()
			events = append(events, kind+":"+name)
			mu.Unlock()
		})
	}()
	time.Sleep(100 * time.Millisecond)

	if _, err := s.Save(ctx, "banner.webp", strings.NewReader("webp")); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 20*time.Millisecond, has("created:banner.webp"), "upload not observed")

	_ = os.Remove(filepath.Join(s.Root(), "banner.webp"))
	eventually(t, 5*time.Second, 20*time.Millisecond, has("deleted:banner.webp"), "delete not observed")

	mu.Lock()
	for _, e := range events {
		if strings.Contains(e, tmpPrefix) {
			t.Errorf("temp file reported: %s", e)
		}
	}
	mu.Unlock()

	cancel()
	<-done
}
