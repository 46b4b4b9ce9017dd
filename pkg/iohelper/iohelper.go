// Package iohelper provides helpers for bounded I/O: reading HTTP bodies
// with limits, capturing child process output without unbounded growth,
// and trimming diagnostics to a fixed number of characters.
package iohelper

import (
	"bytes"
	"io"
	"sync"

	"github.com/siteintel/siteintel/pkg/defaults"
)

// Standard body size limits for different use cases
const (
	// SmallMaxBodySize is for API lookups and request bodies (8KB)
	SmallMaxBodySize int64 = defaults.BufferSmall

	// RequestMaxBodySize is for scan requests (16KB)
	RequestMaxBodySize int64 = defaults.BufferRequest
)

// ReadBody reads from an io.Reader with a size limit.
// If r is nil, returns empty slice and no error.
//
// Usage:
//
//	body, err := iohelper.ReadBody(resp.Body, iohelper.SmallMaxBodySize)
//	defer iohelper.DrainAndClose(resp.Body)
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadBodySmall reads from an io.Reader with an 8KB limit.
func ReadBodySmall(r io.Reader) ([]byte, error) {
	return ReadBody(r, SmallMaxBodySize)
}

// DrainAndClose reads any remaining data from r and closes it if it's a ReadCloser.
// This ensures the connection can be reused for HTTP keep-alive.
// Always returns nil error to allow use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}

	// Drain remaining data (limited to 64KB to prevent DoS)
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64*1024))

	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}

// CappedBuffer is an io.Writer that keeps at most Max bytes and silently
// discards the rest. Writes never fail, so a chatty child process is not
// killed by a broken pipe. Safe for concurrent use.
type CappedBuffer struct {
	Max int

	mu        sync.Mutex
	buf       bytes.Buffer
	truncated bool
}

// NewCappedBuffer returns a buffer holding at most max bytes.
func NewCappedBuffer(max int) *CappedBuffer {
	return &CappedBuffer{Max: max}
}

// Write implements io.Writer.
func (c *CappedBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room := c.Max - c.buf.Len()
	if room <= 0 {
		c.truncated = len(p) > 0 || c.truncated
		return len(p), nil
	}
	if len(p) > room {
		c.buf.Write(p[:room])
		c.truncated = true
		return len(p), nil
	}
	c.buf.Write(p)
	return len(p), nil
}

// Bytes returns a copy of the captured bytes.
func (c *CappedBuffer) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return bytes.Clone(c.buf.Bytes())
}

// Truncated reports whether any output was discarded.
func (c *CappedBuffer) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}

// Excerpt returns at most n characters (runes) of s.
func Excerpt(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
