package serving

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
)

var rangePattern = regexp.MustCompile(`bytes=(\d*)-(\d*)`)

// ByteRange is an inclusive window over a file of Total bytes.
type ByteRange struct {
	Start int64
	End   int64
	Total int64
}

// FullRange covers the whole file.
func FullRange(size int64) ByteRange {
	return ByteRange{Start: 0, End: size - 1, Total: size}
}

// Length is the number of bytes in the window.
func (b ByteRange) Length() int64 {
	if b.End < b.Start {
		return 0
	}
	return b.End - b.Start + 1
}

// ContentRange formats the window for a Content-Range header.
func (b ByteRange) ContentRange() string {
	if b.Length() == 0 {
		return fmt.Sprintf("bytes */%d", b.Total)
	}
	return fmt.Sprintf("bytes %d-%d/%d", b.Start, b.End, b.Total)
}

// ParseRange turns a Range header value into a window over size bytes. A missing
// or non-numeric bound takes its default (0 for start, size-1 for end), so
// "bytes=-20" starts at 0. Values that do not match the pattern at all, or that
// leave start past end after clamping, select the whole file.
func ParseRange(header string, size int64) ByteRange {
	full := FullRange(size)
	m := rangePattern.FindStringSubmatch(header)
	if m == nil {
		return full
	}

	br := full
	if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
		br.Start = v
	}
	if v, err := strconv.ParseInt(m[2], 10, 64); err == nil {
		br.End = v
	}

	if br.End > size-1 {
		br.End = size - 1
	}
	if br.Start > br.End {
		return full
	}
	return br
}

// SelectRange computes the window for a request. When a Range header is present
// the response becomes 206 and carries "Accept-Range: bytes"; otherwise the
// status stays 200 and no header is touched.
func SelectRange(h http.Header, rangeHeader string, size int64) (ByteRange, int) {
	if rangeHeader == "" {
		return FullRange(size), http.StatusOK
	}
	h.Set("Accept-Range", "bytes")
	br := ParseRange(rangeHeader, size)
	h.Set("Content-Range", br.ContentRange())
	return br, http.StatusPartialContent
}
