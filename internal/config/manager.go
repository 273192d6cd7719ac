package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 250 * time.Millisecond

// Manager holds the live configuration and republishes it when the file
// on disk changes.
type Manager struct {
	path     string
	debounce time.Duration

	mu  sync.RWMutex
	cfg Config

	// subsMu also guards against sending on a channel Unsubscribe is closing.
	subsMu sync.Mutex
	subs   []chan Config

	log zerolog.Logger
}

type ManagerOption func(*Manager)

func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// WithInitial seeds the manager with a config the caller already loaded from
// the same path, so Load need not read the file again.
func WithInitial(cfg Config) ManagerOption {
	return func(m *Manager) { m.cfg = cfg }
}

func WithDebounce(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.debounce = d
		}
	}
}

func NewManager(path string, opts ...ManagerOption) *Manager {
	m := &Manager{path: path, debounce: defaultDebounce, cfg: Default(), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) Load() (Config, error) {
	cfg, err := Load(m.path)
	if err != nil {
		return Config{}, err
	}
	m.commit(cfg)
	return cfg, nil
}

func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) commit(cfg Config) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
}

func (m *Manager) Subscribe(buffer int) chan Config {
	ch := make(chan Config, buffer)
	m.subsMu.Lock()
	m.subs = append(m.subs, ch)
	m.subsMu.Unlock()
	return ch
}

func (m *Manager) Unsubscribe(ch chan Config) {
	if ch == nil {
		return
	}
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for i, s := range m.subs {
		if s == ch {
			last := len(m.subs) - 1
			m.subs[i] = m.subs[last]
			m.subs[last] = nil
			m.subs = m.subs[:last]
			close(ch)
			return
		}
	}
}

// publish delivers cfg to every subscriber. A full subscriber loses its
// oldest pending config so the newest always lands.
func (m *Manager) publish(cfg Config) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- cfg:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- cfg:
		default:
			m.log.Debug().Int("queue_cap", cap(ch)).Msg("config update dropped")
		}
	}
}

// Reload re-reads the file and publishes the result if it differs from the
// current config. It reports whether anything was published.
func (m *Manager) Reload() (bool, error) {
	cfg, err := Load(m.path)
	if err != nil {
		return false, err
	}
	if cfg == m.Get() {
		return false, nil
	}
	m.commit(cfg)
	m.publish(cfg)
	return true, nil
}

// Watch follows the config file until ctx is done. Editors that replace the
// file are handled by watching the parent directory.
func (m *Manager) Watch(ctx context.Context) error {
	dir := filepath.Dir(m.path)
	file := filepath.Base(m.path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("config watch %s: %w", dir, err)
	}
	m.log.Debug().Str("dir", dir).Str("file", file).Msg("config watcher started")

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	schedule := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(m.debounce, func() {
			if ctx.Err() != nil {
				return
			}
			changed, err := m.Reload()
			if err != nil {
				m.log.Warn().Err(err).Str("path", m.path).Msg("config rejected")
				return
			}
			if changed {
				m.log.Info().Str("path", m.path).Msg("config reloaded")
			}
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				schedule()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				m.log.Warn().Err(err).Str("dir", dir).Msg("config watch error")
			}
		}
	}
}
