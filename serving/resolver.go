package serving

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"path/filepath"

	"github.com/hairyhenderson/go-fsimpl/filefs"
	"github.com/mordilloSan/go_logger/logger"
)

// Resolver maps request paths onto a directory tree rooted at a fixed location.
// Lookups go through a read-only fs.FS, so names that would escape the root are
// rejected by the filesystem itself.
type Resolver struct {
	root string
	fsys fs.FS
}

// NewResolver returns a Resolver for the tree rooted at root. Relative roots are
// made absolute against the working directory.
func NewResolver(root string) (*Resolver, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	fsys, err := filefs.New(&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)})
	if err != nil {
		return nil, fmt.Errorf("open root %s: %w", abs, err)
	}
	return &Resolver{root: abs, fsys: fsys}, nil
}

// NewResolverFS is used by tests that want an in-memory tree. root is only used
// to report absolute paths.
func NewResolverFS(root string, fsys fs.FS) *Resolver {
	return &Resolver{root: root, fsys: fsys}
}

// Root returns the absolute root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve classifies requestPath as a directory or a regular file. The favicon
// probe and anything that cannot be stat'd fail with ErrNotFound.
func (r *Resolver) Resolve(requestPath string) (*Resolved, error) {
	if requestPath == FaviconPath {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestPath)
	}

	clean := NormalizeRequestPath(requestPath)
	name := fsName(clean)

	info, err := fs.Stat(r.fsys, name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warnf("stat %s failed, answering not found: %v", clean, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, clean, err)
	}

	res := &Resolved{
		Kind:         KindFile,
		AbsolutePath: filepath.Join(r.root, filepath.FromSlash(name)),
		RelativePath: name,
		RequestPath:  clean,
		Info:         info,
		Metadata: FileMetadata{
			IsDirectory: info.IsDir(),
			Size:        info.Size(),
			ChangeTime:  changeTime(info),
		},
	}
	if info.IsDir() {
		res.Kind = KindDirectory
	} else if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrNotFound, clean)
	}
	return res, nil
}

// List reads the children of a resolved directory. Each entry's URL is the
// request path joined with the child name.
func (r *Resolver) List(res *Resolved, requestPath string, hideDotfiles bool) ([]DirectoryEntry, error) {
	if res == nil || res.Kind != KindDirectory {
		return nil, fmt.Errorf("list: not a directory")
	}
	dirEntries, err := fs.ReadDir(r.fsys, res.RelativePath)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", res.RelativePath, err)
	}

	if requestPath == "" {
		requestPath = "/"
	}
	entries := make([]DirectoryEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if hideDotfiles && isHidden(de.Name()) {
			continue
		}
		entries = append(entries, DirectoryEntry{
			Name:  de.Name(),
			URL:   path.Join(requestPath, de.Name()),
			IsDir: de.IsDir(),
		})
	}
	SortEntries(entries)
	return entries, nil
}

// Open opens a resolved file for reading.
func (r *Resolver) Open(res *Resolved) (fs.File, error) {
	if res == nil || res.Kind != KindFile {
		return nil, fmt.Errorf("open: not a regular file")
	}
	f, err := r.fsys.Open(res.RelativePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", res.RelativePath, err)
	}
	return f, nil
}
