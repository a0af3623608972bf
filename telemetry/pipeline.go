package telemetry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eddielth/airtouch-telemetry/config"
	"github.com/eddielth/airtouch-telemetry/logger"
)

// ErrMissingCredential is returned when a sink requires the telemetry API
// key and none was provided in the environment.
var ErrMissingCredential = errors.New("telemetry API key not found in environment")

// Pipeline buffers recorded samples and periodically exports them to the
// configured sinks. Recording is safe from multiple goroutines.
type Pipeline struct {
	interval time.Duration
	sinks    *SinkManager

	mutex   sync.Mutex
	samples []Sample

	done    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// NewPipeline builds the export pipeline from configuration. At least one
// sink must be enabled, and the MQTT sink refuses to build without the
// environment credential, so a misconfigured process fails here, before any
// discovery is attempted.
func NewPipeline(cfg config.TelemetryConfig) (*Pipeline, error) {
	var sinks []Sink

	if cfg.MQTT.Enabled {
		sink, err := NewMQTTSink(cfg.MQTT, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	if cfg.Database.Enabled {
		sink, err := NewDatabaseSink(cfg.Database.Type, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database sink: %v", err)
		}
		sinks = append(sinks, sink)
	}

	if cfg.File.Enabled {
		sink, err := NewFileSink(cfg.File.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file sink: %v", err)
		}
		sinks = append(sinks, sink)
	}

	if len(sinks) == 0 {
		return nil, fmt.Errorf("no telemetry sink enabled")
	}

	return NewPipelineWithSinks(cfg.FlushInterval, sinks...), nil
}

// NewPipelineWithSinks builds a pipeline around explicit sinks. A
// non-positive interval defaults to one minute.
func NewPipelineWithSinks(interval time.Duration, sinks ...Sink) *Pipeline {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Pipeline{
		interval: interval,
		sinks:    NewSinkManager(sinks),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic export loop.
func (p *Pipeline) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.Flush()
			case <-p.done:
				return
			}
		}
	}()
}

// Gauge creates a gauge instrument recording into this pipeline.
func (p *Pipeline) Gauge(name, unit, description string) *Gauge {
	logger.Debug("created gauge %s (unit=%s): %s", name, unit, description)
	return &Gauge{
		pipeline: p,
		name:     name,
		unit:     unit,
	}
}

// record appends a fully built sample to the buffer. A sample is either
// appended whole or not at all.
func (p *Pipeline) record(s Sample) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.samples = append(p.samples, s)
}

// Flush exports all buffered samples.
func (p *Pipeline) Flush() {
	p.mutex.Lock()
	batch := p.samples
	p.samples = nil
	p.mutex.Unlock()

	if len(batch) == 0 {
		return
	}

	logger.Debug("exporting %d buffered samples", len(batch))
	if err := p.sinks.Export(batch); err != nil {
		logger.Error("failed to export sample batch: %v", err)
	}
}

// Pending returns the number of buffered samples not yet exported.
func (p *Pipeline) Pending() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return len(p.samples)
}

// Close stops the export loop, flushes remaining samples and closes all
// sinks.
func (p *Pipeline) Close() {
	p.stopped.Do(func() {
		close(p.done)
	})
	p.wg.Wait()

	p.Flush()
	p.sinks.Close()
}

// Gauge records instantaneous values with a fresh attribute set per call.
type Gauge struct {
	pipeline *Pipeline
	name     string
	unit     string
}

// Set records one measurement. Safe for concurrent use.
func (g *Gauge) Set(value float64, attrs Attributes) {
	g.pipeline.record(Sample{
		Name:       g.name,
		Value:      value,
		Attributes: attrs,
		Timestamp:  time.Now(),
	})
}
