package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// RotatingWriter is a size/count-rotated file sink, lumberjack-style: one
// current file under a directory, rotated to numbered backlog files once
// it exceeds MaxSize, with the oldest backlog file dropped past MaxFiles.
// It implements io.Writer so it can serve as a device-log sink (§6) or
// back a Logger's own Output.
type RotatingWriter struct {
	dir      string
	name     string
	maxSize  int64
	maxFiles int

	file        *os.File
	currentSize int64
}

// NewRotatingWriter opens (creating if necessary) dir/name.log for
// appending, creating dir if it does not exist. maxSize <= 0 disables
// size-based rotation; maxFiles <= 0 disables backlog pruning.
func NewRotatingWriter(dir, name string, maxSize int64, maxFiles int) (*RotatingWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: creating %s: %w", dir, err)
	}
	w := &RotatingWriter{dir: dir, name: name, maxSize: maxSize, maxFiles: maxFiles}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingWriter) path() string {
	return filepath.Join(w.dir, w.name+".log")
}

func (w *RotatingWriter) rotatedPath(i int) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s.%d.log", w.name, i))
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	w.file = f
	w.currentSize = info.Size()
	return nil
}

// Write appends p, rotating first if it would push the current file past
// maxSize.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	if w.maxSize > 0 && w.currentSize+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.currentSize += int64(n)
	return n, err
}

// rotate closes the current file, shifts the numbered backlog (dropping
// the oldest past maxFiles), and opens a fresh current file.
func (w *RotatingWriter) rotate() error {
	if w.file != nil {
		w.file.Close()
	}
	if w.maxFiles > 0 {
		oldest := w.rotatedPath(w.maxFiles - 1)
		os.Remove(oldest)
		for i := w.maxFiles - 2; i >= 0; i-- {
			os.Rename(w.rotatedPath(i), w.rotatedPath(i+1))
		}
		os.Rename(w.path(), w.rotatedPath(0))
	} else {
		os.Remove(w.path())
	}
	return w.open()
}

// Close releases the underlying file handle.
func (w *RotatingWriter) Close() error {
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}
