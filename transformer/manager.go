package transformer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/eddielth/airtouch-telemetry/config"
	"github.com/eddielth/airtouch-telemetry/logger"
	"github.com/eddielth/airtouch-telemetry/telemetry"
)

// DefaultKey is the transformer applied to controllers without a dedicated
// script.
const DefaultKey = "default"

// Manager manages per-controller attribute transformers. A transformer is
// a JavaScript `transform(attrs)` function that may enrich or rewrite the
// flattened attribute map of a zone sample before it is recorded.
type Manager struct {
	transformers map[string]*Transformer
	mutex        sync.RWMutex
}

// Transformer wraps one script's runtime.
type Transformer struct {
	// goja runtimes are not safe for concurrent use.
	mu         sync.Mutex
	vm         *goja.Runtime
	transform  goja.Callable
	scriptPath string
}

// NewManager creates transformers for each configured key. Keys are
// controller names, plus the optional "default" fallback.
func NewManager(configs map[string]config.Transformer) (*Manager, error) {
	manager := &Manager{
		transformers: make(map[string]*Transformer),
	}

	for name, cfg := range configs {
		scriptCode, err := loadScript(cfg)
		if err != nil {
			return nil, fmt.Errorf("transformer %s: %v", name, err)
		}

		transformer, err := newTransformer(scriptCode, cfg.ScriptPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create transformer %s: %v", name, err)
		}

		manager.transformers[name] = transformer
		logger.Info("loaded attribute transformer for %s", name)
	}

	return manager, nil
}

func loadScript(cfg config.Transformer) (string, error) {
	// Inline script code takes precedence over a script file.
	if cfg.ScriptCode != "" {
		return cfg.ScriptCode, nil
	}

	if cfg.ScriptPath != "" {
		scriptBytes, err := os.ReadFile(cfg.ScriptPath)
		if err != nil {
			return "", fmt.Errorf("failed to load script file %s: %v", cfg.ScriptPath, err)
		}
		return string(scriptBytes), nil
	}

	return "", fmt.Errorf("no script code or script path provided")
}

// newTransformer creates a new transformer from script source.
func newTransformer(scriptCode, scriptPath string) (*Transformer, error) {
	vm := goja.New()

	// Helper functions available to scripts.
	_ = vm.Set("log", func(msg string) {
		logger.Info("[JS] %s", msg)
	})

	_ = vm.Set("parseJSON", func(jsonStr string) interface{} {
		var data interface{}
		err := json.Unmarshal([]byte(jsonStr), &data)
		if err != nil {
			logger.Warn("failed to parse JSON: %v", err)
			return nil
		}
		return data
	})

	_ = vm.Set("formatDate", func(timestamp int64, format string) string {
		if format == "" {
			format = "2006-01-02 15:04:05"
		}
		return time.Unix(timestamp, 0).Format(format)
	})

	_ = vm.Set("convertTemperature", func(value float64, fromUnit string, toUnit string) float64 {
		fromUnit = strings.ToUpper(fromUnit)
		toUnit = strings.ToUpper(toUnit)

		var celsius float64
		switch fromUnit {
		case "C":
			celsius = value
		case "F":
			celsius = (value - 32) * 5 / 9
		case "K":
			celsius = value - 273.15
		default:
			return value
		}

		switch toUnit {
		case "C":
			return celsius
		case "F":
			return celsius*9/5 + 32
		case "K":
			return celsius + 273.15
		default:
			return celsius
		}
	})

	_ = vm.Set("validateRange", func(value float64, min float64, max float64) bool {
		return value >= min && value <= max
	})

	_, err := vm.RunString(scriptCode)
	if err != nil {
		return nil, fmt.Errorf("failed to run script: %v", err)
	}

	transformValue := vm.Get("transform")
	if transformValue == nil {
		return nil, fmt.Errorf("script does not define a 'transform' function")
	}

	transform, ok := goja.AssertFunction(transformValue)
	if !ok {
		return nil, fmt.Errorf("'transform' is not a function")
	}

	return &Transformer{
		vm:         vm,
		transform:  transform,
		scriptPath: scriptPath,
	}, nil
}

// Transform applies the transformer registered for the given controller
// name, falling back to the "default" transformer. When neither exists the
// attributes pass through unchanged.
func (m *Manager) Transform(controllerName string, attrs telemetry.Attributes) (telemetry.Attributes, error) {
	m.mutex.RLock()
	transformer, exists := m.transformers[controllerName]
	if !exists {
		transformer, exists = m.transformers[DefaultKey]
	}
	m.mutex.RUnlock()

	if !exists {
		return attrs, nil
	}

	return transformer.apply(attrs)
}

func (t *Transformer) apply(attrs telemetry.Attributes) (telemetry.Attributes, error) {
	native := make(map[string]interface{}, len(attrs))
	for name, value := range attrs {
		native[name] = value.Interface()
	}

	t.mu.Lock()
	result, err := t.transform(goja.Undefined(), t.vm.ToValue(native))
	t.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to run transform: %v", err)
	}

	exported := result.Export()
	resultMap, ok := exported.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("transform must return an attribute object, got %T", exported)
	}

	transformed := make(telemetry.Attributes, len(resultMap))
	for name, raw := range resultMap {
		value, err := telemetry.FromInterface(raw)
		if err != nil {
			logger.Warn("dropping attribute %s: %v", name, err)
			continue
		}
		transformed[name] = value
	}

	return transformed, nil
}

// ReloadTransformer replaces the transformer registered under name.
func (m *Manager) ReloadTransformer(name string, cfg config.Transformer) error {
	scriptCode, err := loadScript(cfg)
	if err != nil {
		return err
	}

	transformer, err := newTransformer(scriptCode, cfg.ScriptPath)
	if err != nil {
		return fmt.Errorf("failed to create transformer: %v", err)
	}

	m.mutex.Lock()
	m.transformers[name] = transformer
	m.mutex.Unlock()

	logger.Info("reloaded attribute transformer for %s", name)
	return nil
}
