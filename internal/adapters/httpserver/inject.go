package httpserver

import (
	"bytes"
	"net/http"
	"path"
	"strconv"
	"strings"
)

// maxInjectSize caps how much of an HTML response is buffered for injection.
const maxInjectSize = 4 << 20

var closingBody = []byte("</body>")

// injectScript inserts tag before the last </body> of HTML responses.
func injectScript(next http.Handler, tag string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !maybeHTML(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// Ranges do not survive injection.
		r.Header.Del("Range")

		iw := &injectWriter{ResponseWriter: w, status: http.StatusOK, tag: []byte(tag)}
		next.ServeHTTP(iw, r)
		iw.finish()
	})
}

func maybeHTML(p string) bool {
	ext := path.Ext(p)
	return ext == "" || ext == ".html" || ext == ".htm"
}

type injectWriter struct {
	http.ResponseWriter
	tag         []byte
	status      int
	buf         []byte
	buffering   bool
	passthrough bool
	wroteHeader bool
}

func (w *injectWriter) WriteHeader(code int) {
	w.status = code
	if w.passthrough {
		w.ResponseWriter.WriteHeader(code)
		w.wroteHeader = true
	}
}

func (w *injectWriter) Write(p []byte) (int, error) {
	if !w.buffering && !w.passthrough {
		if w.status == http.StatusOK && isHTMLContent(w.Header().Get("Content-Type")) {
			w.buffering = true
		} else {
			w.startPassthrough()
		}
	}

	if w.passthrough {
		return w.ResponseWriter.Write(p)
	}

	if len(w.buf)+len(p) > maxInjectSize {
		w.startPassthrough()
		if _, err := w.ResponseWriter.Write(w.buf); err != nil {
			return 0, err
		}
		w.buf = nil
		return w.ResponseWriter.Write(p)
	}

	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *injectWriter) startPassthrough() {
	w.passthrough = true
	w.buffering = false
	if w.buf != nil {
		w.Header().Del("Content-Length")
	}
	if !w.wroteHeader {
		w.ResponseWriter.WriteHeader(w.status)
		w.wroteHeader = true
	}
}

func (w *injectWriter) finish() {
	if w.passthrough {
		return
	}
	if !w.buffering {
		if !w.wroteHeader {
			w.ResponseWriter.WriteHeader(w.status)
		}
		return
	}

	body := insertBeforeBody(w.buf, w.tag)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.ResponseWriter.WriteHeader(w.status)
	_, _ = w.ResponseWriter.Write(body)
}

func isHTMLContent(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "text/html")
}

// insertBeforeBody returns page with tag placed before the last closing body tag.
// Pages without one are returned unchanged.
func insertBeforeBody(page, tag []byte) []byte {
	i := bytes.LastIndex(bytes.ToLower(page), closingBody)
	if i < 0 {
		return page
	}

	out := make([]byte, 0, len(page)+len(tag))
	out = append(out, page[:i]...)
	out = append(out, tag...)
	out = append(out, page[i:]...)
	return out
}
