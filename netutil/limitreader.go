package netutil

import (
	"errors"
	"fmt"
	"io"
)

// LimitedReader reads at most Limit bytes from R and fails with
// *SizeLimitExceededError once the underlying reader has more to give.
type LimitedReader struct {
	R     io.Reader
	Limit int64
	read  int64
}

// NewLimitedReader creates a LimitedReader over r.
func NewLimitedReader(r io.Reader, limit int64) *LimitedReader {
	return &LimitedReader{R: r, Limit: limit}
}

// Read implements io.Reader.
func (l *LimitedReader) Read(p []byte) (int, error) {
	remaining := l.Limit - l.read
	if remaining <= 0 {
		// Probe one byte so a body of exactly Limit bytes is not an error.
		var probe [1]byte
		n, err := l.R.Read(probe[:])
		if n > 0 {
			return 0, &SizeLimitExceededError{Limit: l.Limit}
		}
		return 0, err
	}

	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := l.R.Read(p)
	l.read += int64(n)
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (l *LimitedReader) BytesRead() int64 {
	return l.read
}

// ReadAllLimited reads r to EOF, failing when it holds more than limit bytes.
func ReadAllLimited(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(NewLimitedReader(r, limit))
}

// SizeLimitExceededError is returned when a body exceeds its size limit.
type SizeLimitExceededError struct {
	Limit int64
}

func (e *SizeLimitExceededError) Error() string {
	return fmt.Sprintf("response body exceeds %s", FormatSize(e.Limit))
}

// IsSizeLimitExceededError returns true if err is a SizeLimitExceededError.
func IsSizeLimitExceededError(err error) bool {
	var sizeErr *SizeLimitExceededError
	return errors.As(err, &sizeErr)
}

// FormatSize returns a human-readable size string.
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
