package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/eddielth/airtouch-telemetry/logger"
)

// FileSink appends sample batches as JSON lines to a local file. It is a
// diagnostics export target, not a queryable store.
type FileSink struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewFileSink creates a new file sink writing to path.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %v", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", path, err)
	}

	logger.Info("file sink initialized: %s", path)
	return &FileSink{
		path: path,
		file: file,
	}, nil
}

// Export appends each sample as one JSON line.
func (fs *FileSink) Export(samples []Sample) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	enc := json.NewEncoder(fs.file)
	for _, sample := range samples {
		if err := enc.Encode(sample); err != nil {
			return fmt.Errorf("failed to write sample to %s: %v", fs.path, err)
		}
	}

	logger.Debug("wrote %d samples to %s", len(samples), fs.path)
	return nil
}

// Close closes the file.
func (fs *FileSink) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.file.Close()
}
