package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startTestWatcher(t *testing.T, path string) (*Watcher, chan Tunables) {
	t.Helper()
	ch := make(chan Tunables, 10)
	w, err := NewWatcher(path, func(tun Tunables) { ch <- tun })
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	w.debounce = 20 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, ch
}

func waitTunables(t *testing.T, ch chan Tunables) Tunables {
	t.Helper()
	select {
	case tun := <-ch:
		return tun
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
		return Tunables{}
	}
}

func TestWatcher_ReloadOnWrite(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	path := filepath.Join(t.TempDir(), "civicaid.yaml")
	if err := os.WriteFile(path, []byte("model:\n  name: gemini-2.0-flash\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, ch := startTestWatcher(t, path)

	if err := os.WriteFile(path, []byte("model:\n  name: gemini-1.5-pro\n  persona: terse\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tun := waitTunables(t, ch)
	if tun.Model != "gemini-1.5-pro" {
		t.Errorf("expected reloaded model, got %q", tun.Model)
	}
	if tun.Persona != "terse" {
		t.Errorf("expected reloaded persona, got %q", tun.Persona)
	}
}

func TestWatcher_DebouncedBurstDeliversLastWrite(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	path := filepath.Join(t.TempDir(), "civicaid.yaml")
	if err := os.WriteFile(path, []byte("model:\n  name: m0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, ch := startTestWatcher(t, path)

	for _, name := range []string{"m1", "m2", "m3"} {
		if err := os.WriteFile(path, []byte("model:\n  name: "+name+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// The burst may collapse into one callback or a few; the settled value
	// must be the last write.
	tun := waitTunables(t, ch)
	for tun.Model != "m3" {
		tun = waitTunables(t, ch)
	}
}

func TestWatcher_BadYAMLKeepsCurrentSettings(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	path := filepath.Join(t.TempDir(), "civicaid.yaml")
	if err := os.WriteFile(path, []byte("model:\n  name: good\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, ch := startTestWatcher(t, path)

	if err := os.WriteFile(path, []byte("model: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case tun := <-ch:
		t.Fatalf("broken file must not reach the handler, got %+v", tun)
	case <-time.After(300 * time.Millisecond):
	}

	// The watcher keeps running and picks up the next valid write.
	if err := os.WriteFile(path, []byte("model:\n  name: recovered\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tun := waitTunables(t, ch)
	for tun.Model != "recovered" {
		tun = waitTunables(t, ch)
	}
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"), func(Tunables) {})
	if err != nil {
		t.Fatal(err)
	}
	w.Stop() // must release the fsnotify descriptor without panicking
}
