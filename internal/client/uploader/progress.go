package uploader

import (
	"io"
	"sync/atomic"
)

// progressReader wraps an io.Reader, counts bytes as the HTTP transport
// consumes them, and reports whole-percent changes.
type progressReader struct {
	src   io.Reader
	total int64
	read  atomic.Int64
	// onPercent fires at most once per whole-percent step.
	onPercent   func(percent int)
	lastPercent atomic.Int64
}

func newProgressReader(src io.Reader, total int64, onPercent func(percent int)) *progressReader {
	return &progressReader{src: src, total: total, onPercent: onPercent}
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		read := r.read.Add(int64(n))
		r.report(read)
	}
	return n, err
}

func (r *progressReader) report(read int64) {
	if r.total <= 0 || r.onPercent == nil {
		return
	}
	percent := read * 100 / r.total
	if percent > 100 {
		percent = 100
	}
	last := r.lastPercent.Load()
	if percent > last && r.lastPercent.CompareAndSwap(last, percent) {
		r.onPercent(int(percent))
	}
}
