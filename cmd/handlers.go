package cmd

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mordilloSan/go_logger/logger"

	"github.com/mordilloSan/staticserver/listing"
	"github.com/mordilloSan/staticserver/serving"
)

// handle writes exactly one response per request: 404 for the favicon probe and
// anything unresolvable, a rendered listing for directories, and the file body
// otherwise.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		sendError(w, http.StatusMethodNotAllowed)
		return
	}

	res, err := s.resolver.Resolve(r.URL.Path)
	if err != nil {
		logger.Debugf("%s %s: %v", r.Method, r.URL.Path, err)
		sendError(w, http.StatusNotFound)
		return
	}

	if res.Kind == serving.KindDirectory {
		s.serveDirectory(w, r, res)
		return
	}
	s.serveFile(w, r, res)
}

func (s *Server) serveDirectory(w http.ResponseWriter, r *http.Request, res *serving.Resolved) {
	files, err := s.resolver.List(res, r.URL.Path, s.cfg.HideDotfiles)
	if err != nil {
		logger.Warnf("list %s: %v", res.AbsolutePath, err)
		sendError(w, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	page := listing.Page{Title: res.AbsolutePath, Files: files}
	if err := s.renderer.Render(&buf, page); err != nil {
		if errors.Is(err, listing.ErrNoTemplate) {
			logger.Debugf("listing %s requested without a template", res.AbsolutePath)
		} else {
			logger.Errorf("render listing %s: %v", res.AbsolutePath, err)
		}
		sendError(w, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, res *serving.Resolved) {
	h := w.Header()
	h.Set("Content-Type", serving.ContentType(res.Info))

	cache := serving.EvaluateCache(h, r.Header, res.Metadata, time.Now())
	if cache.Matched {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	f, err := s.resolver.Open(res)
	if err != nil {
		logger.Warnf("open %s: %v", res.AbsolutePath, err)
		sendError(w, http.StatusNotFound)
		return
	}
	defer func() { _ = f.Close() }()

	window, status := serving.SelectRange(h, r.Header.Get("Range"), res.Metadata.Size)
	encoding := serving.NegotiateEncoding(h, r.Header.Values("Accept-Encoding"))
	if encoding == serving.Identity {
		h.Set("Content-Length", strconv.FormatInt(window.Length(), 10))
	}

	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}

	body := encoding.NewWriter(w)
	n, err := serving.CopyWindow(body, f, window)
	if err != nil {
		logger.Debugf("stream %s aborted after %d bytes: %v", res.AbsolutePath, n, err)
		return
	}
	if err := body.Close(); err != nil {
		logger.Debugf("finish %s encoding for %s: %v", encoding, res.AbsolutePath, err)
	}
}

// sendError writes the standard reason phrase for code as the whole body.
func sendError(w http.ResponseWriter, code int) {
	msg := http.StatusText(code)
	if msg == "" {
		msg = strconv.Itoa(code)
	}
	h := w.Header()
	h.Del("Content-Encoding")
	h.Del("Content-Range")
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(msg)))
	w.WriteHeader(code)
	_, _ = w.Write([]byte(msg))
}
