package serving

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/mordilloSan/staticserver/serving/testhelpers"
)

// plainFile hides ReadAt and Seek so CopyWindow has to skip forward.
type plainFile struct {
	fs.File
}

func TestCopyWindow(t *testing.T) {
	data := testhelpers.Sequence(100)
	fsys := fstest.MapFS{"data.bin": &fstest.MapFile{Data: data}}

	tests := []struct {
		name  string
		wrap  func(fs.File) fs.File
		br    ByteRange
		start int
		end   int
	}{
		{"reader at", func(f fs.File) fs.File { return f }, ByteRange{10, 20, 100}, 10, 20},
		{"forward only", func(f fs.File) fs.File { return plainFile{f} }, ByteRange{10, 20, 100}, 10, 20},
		{"full", func(f fs.File) fs.File { return plainFile{f} }, FullRange(100), 0, 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := fsys.Open("data.bin")
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer func() { _ = f.Close() }()

			var buf bytes.Buffer
			n, err := CopyWindow(&buf, tt.wrap(f), tt.br)
			if err != nil {
				t.Fatalf("CopyWindow: %v", err)
			}
			if n != int64(tt.end-tt.start+1) {
				t.Fatalf("copied %d bytes, want %d", n, tt.end-tt.start+1)
			}
			if !bytes.Equal(buf.Bytes(), data[tt.start:tt.end+1]) {
				t.Fatalf("window content mismatch")
			}
		})
	}
}

func TestCopyWindowEmpty(t *testing.T) {
	fsys := fstest.MapFS{"empty": &fstest.MapFile{}}
	f, err := fsys.Open("empty")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	n, err := CopyWindow(&buf, f, FullRange(0))
	if err != nil || n != 0 {
		t.Fatalf("CopyWindow(empty) = %d, %v", n, err)
	}
}

func TestContentType(t *testing.T) {
	fsys := fstest.MapFS{
		"page.html":    &fstest.MapFile{Data: []byte("<p>"), ModTime: time.Now()},
		"style.css":    &fstest.MapFile{Data: []byte("p{}")},
		"blob.unknown": &fstest.MapFile{Data: []byte{0}},
	}
	tests := map[string]string{
		"page.html":    "text/html;charset=utf-8",
		"style.css":    "text/css;charset=utf-8",
		"blob.unknown": "application/octet-stream;charset=utf-8",
	}
	for name, want := range tests {
		info, err := fs.Stat(fsys, name)
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		got := ContentType(info)
		if got != want {
			t.Errorf("ContentType(%s) = %q, want %q", name, got, want)
		}
		if strings.Count(got, "charset") != 1 {
			t.Errorf("ContentType(%s) = %q has duplicate charset", name, got)
		}
	}
}
