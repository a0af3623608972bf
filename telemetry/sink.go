package telemetry

import (
	"sync"

	"github.com/eddielth/airtouch-telemetry/logger"
)

// Sink represents one export target for recorded samples.
type Sink interface {
	// Export delivers a batch of samples.
	Export(samples []Sample) error
	// Close closes the export connection.
	Close() error
}

// SinkManager fans a batch out to several sinks.
type SinkManager struct {
	sinks []Sink
	mutex sync.RWMutex
}

// NewSinkManager creates a new sink manager.
func NewSinkManager(sinks []Sink) *SinkManager {
	return &SinkManager{
		sinks: sinks,
	}
}

// Export delivers the batch to all sinks. A failing sink is logged and the
// remaining sinks still receive the batch.
func (m *SinkManager) Export(samples []Sample) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, sink := range m.sinks {
		if err := sink.Export(samples); err != nil {
			logger.Error("failed to export samples to sink: %v", err)
		}
	}

	return nil
}

// Close closes all sinks.
func (m *SinkManager) Close() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			logger.Error("failed to close sink: %v", err)
		}
	}
}

// AddSink adds a new export target.
func (m *SinkManager) AddSink(sink Sink) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.sinks = append(m.sinks, sink)
}
