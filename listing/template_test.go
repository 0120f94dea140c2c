package listing

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mordilloSan/staticserver/serving"
)

func samplePage() Page {
	return Page{
		Title: "/srv/static/docs",
		Files: []serving.DirectoryEntry{
			{Name: "sub", URL: "/docs/sub", IsDir: true},
			{Name: "a<b>.txt", URL: "/docs/a<b>.txt"},
		},
	}
}

func TestLoadEmbeddedTemplate(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, samplePage()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<title>/srv/static/docs</title>",
		`href="/docs/sub"`,
		">sub/</a>",
		"a&lt;b&gt;.txt",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.html")); err == nil {
		t.Fatalf("Load of missing file should fail")
	}

	bad := filepath.Join(dir, "bad.html")
	if err := os.WriteFile(bad, []byte("{{.Title"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatalf("Load of malformed template should fail")
	}
}

func TestNilRendererReportsNoTemplate(t *testing.T) {
	var r *Renderer
	err := r.Render(&bytes.Buffer{}, samplePage())
	if !errors.Is(err, ErrNoTemplate) {
		t.Fatalf("err = %v, want ErrNoTemplate", err)
	}
}

func TestReloadKeepsPreviousOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte("v1 {{.Title}}"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := os.WriteFile(path, []byte("v2 {{.Title"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.Reload(); err == nil {
		t.Fatalf("Reload of malformed template should fail")
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, Page{Title: "t"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.String() != "v1 t" {
		t.Fatalf("render = %q, want previous template output", buf.String())
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte("old {{.Title}}"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		// Rewrite until the watcher is registered and picks it up.
		if err := os.WriteFile(path, []byte("new {{.Title}}"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		var buf bytes.Buffer
		if err := r.Render(&buf, Page{Title: "t"}); err != nil {
			t.Fatalf("Render: %v", err)
		}
		if buf.String() == "new t" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("template was not reloaded within deadline")
}

func TestWatchRequiresFile(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := r.Watch(context.Background()); err == nil {
		t.Fatalf("Watch on embedded template should fail")
	}
}
