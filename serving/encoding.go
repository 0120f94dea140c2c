package serving

import (
	"compress/gzip"
	"compress/zlib"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// EncodingChoice is the transform applied to a response body.
type EncodingChoice int

const (
	Identity EncodingChoice = iota
	Gzip
	Deflate
)

var (
	gzipToken    = regexp.MustCompile(`\bgzip\b`)
	deflateToken = regexp.MustCompile(`\bdeflate\b`)
)

func (e EncodingChoice) String() string {
	switch e {
	case Gzip:
		return "gzip"
	case Deflate:
		return "deflate"
	default:
		return "identity"
	}
}

// NegotiateEncoding picks gzip over deflate over identity from the client's
// Accept-Encoding values and sets Content-Encoding for the non-identity cases.
// A nil slice means the header was absent, which selects identity.
func NegotiateEncoding(h http.Header, acceptEncoding []string) EncodingChoice {
	if len(acceptEncoding) == 0 {
		return Identity
	}
	joined := strings.Join(acceptEncoding, ",")

	choice := Identity
	switch {
	case gzipToken.MatchString(joined):
		choice = Gzip
	case deflateToken.MatchString(joined):
		choice = Deflate
	}
	if choice != Identity {
		h.Set("Content-Encoding", choice.String())
	}
	return choice
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w with the chosen transform. Close must be called to flush
// the compressor; it never closes w. Deflate is the zlib-wrapped stream HTTP
// clients expect for "deflate".
func (e EncodingChoice) NewWriter(w io.Writer) io.WriteCloser {
	switch e {
	case Gzip:
		return gzip.NewWriter(w)
	case Deflate:
		return zlib.NewWriter(w)
	default:
		return nopWriteCloser{w}
	}
}
