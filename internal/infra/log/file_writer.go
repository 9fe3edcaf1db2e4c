package log

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap/zapcore"
)

// MaxLogFileSize caps app.log; the file is truncated once it grows past this size.
const MaxLogFileSize = 50 * 1024 * 1024

type truncatingWriter struct {
	mu   sync.Mutex
	file *os.File
	path string
	max  int64
}

func newTruncatingWriter(path string) (zapcore.WriteSyncer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	w := &truncatingWriter{file: file, path: path, max: MaxLogFileSize}
	if err := w.truncateIfNeeded(); err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

func (w *truncatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.truncateIfNeeded(); err != nil {
		return 0, err
	}
	return w.file.Write(p)
}

func (w *truncatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

func (w *truncatingWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil || info.Size() <= w.max {
		return nil
	}
	w.file.Close()

	w.file, err = os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to truncate log file: %w", err)
	}
	return nil
}
