package telemetry

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/eddielth/airtouch-telemetry/config"
)

type captureSink struct {
	mu      sync.Mutex
	batches [][]Sample
}

func (s *captureSink) Export(samples []Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, samples)
	return nil
}

func (s *captureSink) Close() error { return nil }

func (s *captureSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, batch := range s.batches {
		n += len(batch)
	}
	return n
}

// TestPipelineBuffersUntilFlush verifies that recorded samples stay
// buffered until a flush and are then delivered as one batch.
func TestPipelineBuffersUntilFlush(t *testing.T) {
	sink := &captureSink{}
	pipeline := NewPipelineWithSinks(time.Hour, sink)
	defer pipeline.Close()

	gauge := pipeline.Gauge("airtouch.zone.temperature", "C", "test gauge")
	gauge.Set(21.5, Attributes{"airtouch.zone.id": Int(0)})
	gauge.Set(23.0, Attributes{"airtouch.zone.id": Int(1)})

	if pipeline.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", pipeline.Pending())
	}
	if sink.total() != 0 {
		t.Fatalf("sink received %d samples before flush", sink.total())
	}

	pipeline.Flush()

	if pipeline.Pending() != 0 {
		t.Errorf("pending = %d after flush, want 0", pipeline.Pending())
	}
	if sink.total() != 2 {
		t.Errorf("sink received %d samples, want 2", sink.total())
	}
}

// TestPipelineConcurrentRecording verifies that concurrent gauge writes do
// not corrupt or lose samples.
func TestPipelineConcurrentRecording(t *testing.T) {
	sink := &captureSink{}
	pipeline := NewPipelineWithSinks(time.Hour, sink)
	defer pipeline.Close()

	gauge := pipeline.Gauge("airtouch.zone.temperature", "C", "test gauge")

	const goroutines = 8
	const perGoroutine = 200

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				gauge.Set(float64(j), Attributes{"airtouch.ac.id": Int(int64(id))})
			}
		}(i)
	}
	wg.Wait()

	pipeline.Flush()
	if sink.total() != goroutines*perGoroutine {
		t.Errorf("sink received %d samples, want %d", sink.total(), goroutines*perGoroutine)
	}
}

// TestPipelineCloseFlushesRemaining verifies that Close exports whatever is
// still buffered.
func TestPipelineCloseFlushesRemaining(t *testing.T) {
	sink := &captureSink{}
	pipeline := NewPipelineWithSinks(time.Hour, sink)
	pipeline.Start()

	gauge := pipeline.Gauge("airtouch.zone.temperature", "C", "test gauge")
	gauge.Set(19.5, Attributes{})

	pipeline.Close()

	if sink.total() != 1 {
		t.Errorf("sink received %d samples after close, want 1", sink.total())
	}
}

// TestPipelinePeriodicFlush verifies the export loop drains the buffer on
// its own.
func TestPipelinePeriodicFlush(t *testing.T) {
	sink := &captureSink{}
	pipeline := NewPipelineWithSinks(20*time.Millisecond, sink)
	pipeline.Start()
	defer pipeline.Close()

	gauge := pipeline.Gauge("airtouch.zone.temperature", "C", "test gauge")
	gauge.Set(22.0, Attributes{})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if sink.total() == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sample not exported by the periodic loop")
}

// TestNewPipelineMissingCredential verifies that an enabled MQTT sink
// without the environment credential fails with the dedicated error.
func TestNewPipelineMissingCredential(t *testing.T) {
	_, err := NewPipeline(config.TelemetryConfig{
		FlushInterval: time.Minute,
		MQTT: config.MQTTSinkConfig{
			Enabled: true,
			Broker:  "tcp://localhost:1883",
		},
	})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("NewPipeline returned %v, want ErrMissingCredential", err)
	}
}

// TestNewPipelineNoSinks verifies that a configuration without any enabled
// sink is rejected.
func TestNewPipelineNoSinks(t *testing.T) {
	if _, err := NewPipeline(config.TelemetryConfig{FlushInterval: time.Minute}); err == nil {
		t.Fatal("NewPipeline accepted a configuration without sinks")
	}
}

// TestFileSinkRoundTrip verifies the diagnostics sink writes one JSON line
// per sample.
func TestFileSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.jsonl")

	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("failed to create file sink: %v", err)
	}

	now := time.Now()
	err = sink.Export([]Sample{
		{Name: "airtouch.zone.temperature", Value: 21.5, Attributes: Attributes{"airtouch.zone.id": Int(0)}, Timestamp: now},
		{Name: "airtouch.zone.temperature", Value: 23.0, Attributes: Attributes{"airtouch.zone.id": Int(1)}, Timestamp: now},
	})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open sink output: %v", err)
	}
	defer file.Close()

	var lines int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var decoded struct {
			Name       string                 `json:"name"`
			Value      float64                `json:"value"`
			Attributes map[string]interface{} `json:"attributes"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
		}
		if decoded.Name != "airtouch.zone.temperature" {
			t.Errorf("line %d name = %s", lines+1, decoded.Name)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("sink wrote %d lines, want 2", lines)
	}
}
