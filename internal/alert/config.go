package alert

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Config holds the threshold rules the engine evaluates against.
type Config struct {
	// WarningThreshold and CriticalThreshold are fill percentages that fire
	// a notification when crossed upward.
	WarningThreshold  int `yaml:"warning_threshold"`
	CriticalThreshold int `yaml:"critical_threshold"`
	// Hysteresis is the margin below a threshold the level must drop under
	// before that threshold re-arms. Prevents flapping at the boundary.
	Hysteresis int `yaml:"hysteresis"`
	// EmitCleared gates the courtesy "fill cleared" info notification.
	EmitCleared bool `yaml:"emit_cleared"`
}

// DefaultConfig returns the thresholds used when no config file is present.
func DefaultConfig() Config {
	return Config{
		WarningThreshold:  80,
		CriticalThreshold: 95,
		Hysteresis:        5,
		EmitCleared:       false,
	}
}

func (c Config) validate() error {
	if c.WarningThreshold <= 0 || c.WarningThreshold > 100 {
		return fmt.Errorf("warning_threshold %d out of range", c.WarningThreshold)
	}
	if c.CriticalThreshold <= c.WarningThreshold || c.CriticalThreshold > 100 {
		return fmt.Errorf("critical_threshold %d must be within (%d,100]", c.CriticalThreshold, c.WarningThreshold)
	}
	if c.Hysteresis < 0 || c.Hysteresis >= c.WarningThreshold {
		return fmt.Errorf("hysteresis %d out of range", c.Hysteresis)
	}
	return nil
}

// Loader reads the YAML alert config and watches it for changes. A broken
// or missing file never takes alerting down: the loader falls back to the
// last good config, or the defaults.
type Loader struct {
	path    string
	mu      sync.RWMutex
	current Config
	watcher *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) *Loader {
	l := &Loader{path: path, current: DefaultConfig()}
	if path == "" {
		return l
	}
	cfg, err := l.load()
	if err != nil {
		log.Printf("alert: config %s unusable, using defaults: %v", path, err)
		return l
	}
	l.current = cfg
	return l
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Watch starts a background goroutine that hot-reloads the config on file
// changes. Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("alert config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("alert config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					cfg, err := l.load()
					if err != nil {
						log.Printf("alert: config reload failed, keeping previous: %v", err)
						continue
					}
					l.mu.Lock()
					l.current = cfg
					l.mu.Unlock()
					log.Printf("alert: config reloaded (warning=%d critical=%d hysteresis=%d)",
						cfg.WarningThreshold, cfg.CriticalThreshold, cfg.Hysteresis)
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }, nil
}

func (l *Loader) load() (Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", l.path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
