package telemetry

import "time"

// Sample is one recorded gauge measurement. Samples are independent: they
// are never merged or aggregated before export.
type Sample struct {
	Name       string     `json:"name"`
	Value      float64    `json:"value"`
	Attributes Attributes `json:"attributes"`
	Timestamp  time.Time  `json:"timestamp"`
}
