package serving

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"
)

// CacheControl is attached to every file response.
const CacheControl = "private, max-age=60"

// CacheValidators are derived deterministically from FileMetadata.
type CacheValidators struct {
	ETag         string
	LastModified string
}

// CacheResult reports whether the request's conditional headers matched.
type CacheResult struct {
	Matched bool
	CacheValidators
}

// ComputeValidators returns the entity tag (SHA-1 over the UTC change time and
// the size) and the Last-Modified value for meta.
func ComputeValidators(meta FileMetadata) CacheValidators {
	changed := meta.ChangeTime.UTC().Format(http.TimeFormat)
	sum := sha1.Sum([]byte(changed + strconv.FormatInt(meta.Size, 10)))
	return CacheValidators{
		ETag:         hex.EncodeToString(sum[:]),
		LastModified: changed,
	}
}

// EvaluateCache sets Cache-Control, Expires, Etag and Last-Modified on h, then
// decides freshness. A request is fresh when If-None-Match equals the computed
// etag or If-Modified-Since equals the computed Last-Modified string. Both are
// plain string comparisons; If-Modified-Since is not ordered by time.
func EvaluateCache(h http.Header, req http.Header, meta FileMetadata, now time.Time) CacheResult {
	v := ComputeValidators(meta)

	h.Set("Cache-Control", CacheControl)
	h.Set("Expires", now.UTC().Format(http.TimeFormat))
	h.Set("Etag", v.ETag)
	h.Set("Last-Modified", v.LastModified)

	ifNoneMatch := req.Get("If-None-Match")
	ifModifiedSince := req.Get("If-Modified-Since")
	matched := (ifNoneMatch != "" && ifNoneMatch == v.ETag) ||
		(ifModifiedSince != "" && ifModifiedSince == v.LastModified)

	return CacheResult{Matched: matched, CacheValidators: v}
}
