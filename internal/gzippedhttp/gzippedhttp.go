// Package gzippedhttp provides gzip handling for the HTTP API.
// JSON responses are compressed for clients that accept gzip; image
// bytes are passed through untouched since re-compressing them wastes
// CPU for no gain. Gzip-encoded request bodies are transparently
// decompressed.
package gzippedhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressedReader wraps an io.ReadCloser and decompresses its input using gzip.
type CompressedReader struct {
	r  io.ReadCloser
	zr *gzip.Reader
}

// NewCompressedReader returns a new CompressedReader that reads
// gzip-compressed data from the provided io.ReadCloser.
func NewCompressedReader(requestBody io.ReadCloser) (*CompressedReader, error) {
	zippedRequestBody, err := gzip.NewReader(requestBody)
	if err != nil {
		return nil, err
	}

	return &CompressedReader{
		r:  requestBody,
		zr: zippedRequestBody,
	}, nil
}

// Read reads decompressed data from the underlying gzip stream.
func (c CompressedReader) Read(p []byte) (n int, err error) {
	return c.zr.Read(p)
}

// Close closes both the gzip reader and the underlying io.ReadCloser.
func (c *CompressedReader) Close() error {
	if err := c.r.Close(); err != nil {
		return err
	}
	return c.zr.Close()
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

// JSONCompressingResponseWriter compresses the response body with gzip,
// but only when the handler declared a JSON content type. The decision
// is made on the first WriteHeader/Write call.
type JSONCompressingResponseWriter struct {
	w           http.ResponseWriter
	zw          *gzip.Writer
	compressing bool
	decided     bool
}

// NewJSONCompressingResponseWriter wraps the response writer.
func NewJSONCompressingResponseWriter(w http.ResponseWriter) *JSONCompressingResponseWriter {
	return &JSONCompressingResponseWriter{w: w}
}

// Header returns the HTTP headers associated with the response.
func (c *JSONCompressingResponseWriter) Header() http.Header {
	return c.w.Header()
}

func (c *JSONCompressingResponseWriter) decide(statusCode int) {
	if c.decided {
		return
	}
	c.decided = true

	contentType := c.w.Header().Get("Content-Type")
	if statusCode < 300 && strings.Contains(contentType, "application/json") {
		c.compressing = true
		c.zw = gzipWriterPool.Get().(*gzip.Writer)
		c.zw.Reset(c.w)
		c.w.Header().Set("Content-Encoding", "gzip")
		c.w.Header().Del("Content-Length")
	}
}

// WriteHeader decides on compression and writes the status code.
func (c *JSONCompressingResponseWriter) WriteHeader(statusCode int) {
	c.decide(statusCode)
	c.w.WriteHeader(statusCode)
}

// Write writes the (possibly compressed) response body.
func (c *JSONCompressingResponseWriter) Write(p []byte) (int, error) {
	c.decide(http.StatusOK)
	if c.compressing {
		return c.zw.Write(p)
	}

	return c.w.Write(p)
}

// Close flushes and returns the pooled gzip writer.
func (c *JSONCompressingResponseWriter) Close() error {
	if !c.compressing {
		return nil
	}

	err := c.zw.Close()
	if err != nil {
		return err
	}
	gzipWriterPool.Put(c.zw)

	return nil
}

// GzipJSONResponse compresses JSON responses for clients whose
// Accept-Encoding includes gzip.
func GzipJSONResponse(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		acceptEncoding := request.Header.Get("Accept-Encoding")
		if !strings.Contains(acceptEncoding, "gzip") {
			h.ServeHTTP(response, request)

			return
		}

		responseWithCompression := NewJSONCompressingResponseWriter(response)
		defer responseWithCompression.Close()

		h.ServeHTTP(responseWithCompression, request)
	}

	return http.HandlerFunc(middleware)
}

// UngzipRequest decompresses gzip-encoded request bodies before they
// reach the handler chain.
func UngzipRequest(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		contentEncoding := request.Header.Get("Content-Encoding")
		if strings.Contains(contentEncoding, "gzip") {
			requestBodyWithCompression, err := NewCompressedReader(request.Body)
			if err != nil {
				response.WriteHeader(http.StatusInternalServerError)
				return
			}
			request.Body = requestBodyWithCompression
			defer requestBodyWithCompression.Close()
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}
