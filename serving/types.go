package serving

import (
	"errors"
	"io/fs"
	"path"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a request path does not resolve to anything servable.
	ErrNotFound = errors.New("not found")
)

// FaviconPath is answered with 404 without touching the filesystem.
const FaviconPath = "/favicon.ico"

// Kind classifies a resolved path.
type Kind string

const (
	KindDirectory Kind = "directory"
	KindFile      Kind = "file"
)

// FileMetadata is stat'd fresh for every request.
type FileMetadata struct {
	IsDirectory bool
	Size        int64
	ChangeTime  time.Time
}

// Resolved is the outcome of a successful path resolution.
type Resolved struct {
	Kind         Kind
	AbsolutePath string // filesystem path under the configured root
	RelativePath string // fs.FS name, "." for the root
	RequestPath  string // cleaned URL path, always leading "/"
	Metadata     FileMetadata
	Info         fs.FileInfo
}

// DirectoryEntry is one row of a directory listing.
type DirectoryEntry struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	IsDir bool   `json:"isDir"`
}

// NormalizeRequestPath returns the canonical request path: always a leading "/",
// no trailing "/" (except for root), with "." and ".." resolved so the result can
// never climb above "/".
func NormalizeRequestPath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	cleaned := path.Clean("/" + strings.Trim(p, "/"))
	if cleaned == "" || cleaned == "." {
		return "/"
	}
	return cleaned
}

// fsName converts a normalized request path into an fs.FS name.
func fsName(requestPath string) string {
	name := strings.TrimPrefix(requestPath, "/")
	if name == "" {
		return "."
	}
	return name
}

// isHidden reports whether a listing entry name is a dotfile.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
