// Package config provides configuration loading and hot reload.
package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// settleDelay coalesces the burst of events a single editor save produces.
const settleDelay = 100 * time.Millisecond

// field describes one setting and whether a running wizard can pick it up.
type field struct {
	name       string
	reloadable bool
	differs    func(a, b *Config) bool
}

var fields = []field{
	{"default_form", true, func(a, b *Config) bool { return a.DefaultForm != b.DefaultForm }},
	{"default_parser", true, func(a, b *Config) bool { return a.DefaultParser != b.DefaultParser }},
	{"standards.units", true, func(a, b *Config) bool { return !slices.Equal(a.Standards.Units, b.Standards.Units) }},
	{"standards.file", true, func(a, b *Config) bool { return a.Standards.File != b.Standards.File }},
	{"standards.order", true, func(a, b *Config) bool { return !slices.Equal(a.Standards.Order, b.Standards.Order) }},
	{"standards.decimals", true, func(a, b *Config) bool { return a.Decimals() != b.Decimals() }},
	{"logging.level", true, func(a, b *Config) bool { return a.Logging.Level != b.Logging.Level }},

	{"forms", false, func(a, b *Config) bool { return !slices.Equal(a.Forms, b.Forms) }},
	{"logging.format", false, func(a, b *Config) bool { return a.Logging.Format != b.Logging.Format }},
	{"server.host", false, func(a, b *Config) bool { return a.Server.Host != b.Server.Host }},
	{"server.port", false, func(a, b *Config) bool { return a.Server.Port != b.Server.Port }},
	{"server.read_timeout", false, func(a, b *Config) bool { return a.Server.ReadTimeout != b.Server.ReadTimeout }},
	{"server.write_timeout", false, func(a, b *Config) bool { return a.Server.WriteTimeout != b.Server.WriteTimeout }},
	{"metrics.enabled", false, func(a, b *Config) bool { return a.Metrics.Enabled != b.Metrics.Enabled }},
	{"metrics.path", false, func(a, b *Config) bool { return a.Metrics.Path != b.Metrics.Path }},
}

// ReloadableFields returns the settings a running wizard applies on reload.
func ReloadableFields() []string { return fieldNames(true) }

// NonReloadableFields returns the settings that need a restart.
func NonReloadableFields() []string { return fieldNames(false) }

func fieldNames(reloadable bool) []string {
	var out []string
	for _, f := range fields {
		if f.reloadable == reloadable {
			out = append(out, f.name)
		}
	}
	return out
}

// diff splits the settings that differ between a and b by reloadability.
func diff(a, b *Config) (live, fixed []string) {
	for _, f := range fields {
		if !f.differs(a, b) {
			continue
		}
		if f.reloadable {
			live = append(live, f.name)
		} else {
			fixed = append(fixed, f.name)
		}
	}
	return live, fixed
}

// keepFixed copies the restart-only settings of running into next.
func keepFixed(next, running *Config) {
	next.Forms = running.Forms
	next.Logging.Format = running.Logging.Format
	next.Server = running.Server
	next.Metrics = running.Metrics
}

// Holder owns the live configuration of a unitwizard process. Reloads come
// from the file watcher, SIGHUP or an explicit Reload; OnChange listeners
// push reloaded defaults and standard units into the wizard. Settings that
// need a restart keep their startup values and are reported by Pending.
type Holder struct {
	mu        sync.RWMutex
	current   *Config
	pending   []string
	listeners []func(*Config)
	observe   func(error)

	path   string
	logger zerolog.Logger

	watcher  *fsnotify.Watcher
	stop     chan struct{}
	stopOnce sync.Once
}

// NewHolder loads the configuration file at path.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	return &Holder{
		current: cfg,
		path:    abs,
		logger:  logger.With().Str("component", "config").Logger(),
		stop:    make(chan struct{}),
	}, nil
}

// Get returns the running configuration.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Pending lists the restart-only settings whose value on disk differs from
// the running one.
func (h *Holder) Pending() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.pending)
}

// Reload re-reads the file. An invalid file leaves the running settings in
// place and is reported to the observer and the caller.
func (h *Holder) Reload() error {
	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Str("path", h.path).Msg("config rejected, standards and defaults unchanged")
		h.notify(err)
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	live, fixed := diff(h.current, next)
	keepFixed(next, h.current)
	h.current = next
	h.pending = fixed
	listeners := slices.Clone(h.listeners)
	h.mu.Unlock()

	if len(fixed) > 0 {
		h.logger.Warn().Strs("fields", fixed).Msg("restart unitwizard to apply these settings")
	}
	h.logger.Info().Strs("changed", live).Str("path", h.path).Msg("config reloaded")

	for _, fn := range listeners {
		fn(next)
	}
	h.notify(nil)
	return nil
}

// SetReloadObserver installs fn to be called after every reload attempt
// with its error, nil on success.
func (h *Holder) SetReloadObserver(fn func(error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observe = fn
}

func (h *Holder) notify(err error) {
	h.mu.RLock()
	fn := h.observe
	h.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// OnChange registers fn to receive every successfully reloaded config.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// WatchFile reloads whenever the config file is written or replaced. The
// parent directory is watched so that atomic saves are seen.
func (h *Holder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(h.path), err)
	}
	h.watcher = watcher

	go h.watchLoop()
	h.logger.Info().Str("path", h.path).Msg("watching config file")
	return nil
}

// WatchSignals reloads on SIGHUP until Stop.
func (h *Holder) WatchSignals() {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-hup:
				h.logger.Info().Msg("SIGHUP received")
				_ = h.Reload()
			case <-h.stop:
				return
			}
		}
	}()
}

// Stop ends file and signal watching. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watchLoop() {
	name := filepath.Base(h.path)
	var settle *time.Timer
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			h.logger.Debug().Str("op", ev.Op.String()).Msg("config file touched")
			if settle == nil {
				settle = time.AfterFunc(settleDelay, h.reloadFromWatch)
			} else {
				settle.Reset(settleDelay)
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("config watcher error")

		case <-h.stop:
			return
		}
	}
}

func (h *Holder) reloadFromWatch() {
	select {
	case <-h.stop:
		return
	default:
	}
	_ = h.Reload()
}
