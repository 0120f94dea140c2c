package serving

import (
	"fmt"
	"io"
	"io/fs"
	"mime"

	"github.com/hairyhenderson/go-fsimpl"
)

const defaultContentType = "application/octet-stream"

// ContentType returns the media type for a file, guessed from its extension,
// with a utf-8 charset parameter appended.
func ContentType(info fs.FileInfo) string {
	mediaType := defaultContentType
	if ct := fsimpl.ContentType(info); ct != "" {
		if parsed, _, err := mime.ParseMediaType(ct); err == nil {
			mediaType = parsed
		}
	}
	return mediaType + ";charset=utf-8"
}

// CopyWindow writes the bytes of f covered by br to dst. Files that support
// random access are read through a section reader; anything else is skipped
// forward to the start of the window.
func CopyWindow(dst io.Writer, f fs.File, br ByteRange) (int64, error) {
	n := br.Length()
	if n == 0 {
		return 0, nil
	}

	if ra, ok := f.(io.ReaderAt); ok {
		return io.Copy(dst, io.NewSectionReader(ra, br.Start, n))
	}

	if seeker, ok := f.(io.Seeker); ok {
		if _, err := seeker.Seek(br.Start, io.SeekStart); err != nil {
			return 0, fmt.Errorf("seek to %d: %w", br.Start, err)
		}
	} else if br.Start > 0 {
		if _, err := io.CopyN(io.Discard, f, br.Start); err != nil {
			return 0, fmt.Errorf("skip to %d: %w", br.Start, err)
		}
	}
	return io.CopyN(dst, f, n)
}
