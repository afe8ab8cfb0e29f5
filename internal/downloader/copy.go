package downloader

import (
	"io"
)

// progressWriter reports the running total after every write.
type progressWriter struct {
	dst      io.Writer
	total    int64
	progress func(done int64)
}

func (w *progressWriter) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	if n > 0 {
		w.total += int64(n)
		if w.progress != nil {
			w.progress(w.total)
		}
	}

	return n, err
}

func copyWithProgress(dst io.Writer, src io.Reader, progress func(done int64)) (int64, error) {
	pw := &progressWriter{dst: dst, progress: progress}
	buf := make([]byte, 32*1024)

	_, err := io.CopyBuffer(pw, src, buf)
	return pw.total, err
}
