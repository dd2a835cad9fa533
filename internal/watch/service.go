// Package watch follows a source image on disk and reloads it when it
// changes.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"quilt/internal/logging"
)

const EventStatus = "watch:status"

// DefaultDelay coalesces the bursts of writes editors produce on save.
const DefaultDelay = 300 * time.Millisecond

type Emitter func(eventName string, payload any)

// Reloader is called with the watched path after it settles.
type Reloader func(path string) error

type Status struct {
	Watching     bool   `json:"watching"`
	Path         string `json:"path,omitempty"`
	Reloads      int    `json:"reloads"`
	LastReloadAt string `json:"lastReloadAt,omitempty"`
	LastError    string `json:"lastError,omitempty"`
}

type Service struct {
	lifecycle  sync.Mutex // serialises Watch and Stop
	running    atomic.Int32
	mu         sync.Mutex
	reload     Reloader
	delay      time.Duration
	watcher    *fsnotify.Watcher
	done       chan struct{}
	path       string
	reloads    int
	lastReload time.Time
	lastError  string
	emit       Emitter
}

func NewService(reload Reloader, delay time.Duration) *Service {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Service{reload: reload, delay: delay}
}

func (s *Service) SetEmitter(emitter Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit = emitter
}

// Watch starts following path, replacing any previous watch. The parent
// directory is watched so that editors that save by rename are noticed.
func (s *Service) Watch(path string) error {
	if path == "" {
		return errors.New("watch path is empty")
	}
	absolute, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve watch path: %w", err)
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if err := s.stop(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absolute)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(absolute), err)
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.watcher = watcher
	s.done = done
	s.path = absolute
	s.lastError = ""
	status := s.statusLocked()
	s.mu.Unlock()

	s.running.Add(1)
	go s.loop(watcher, absolute, done)

	logging.Logger().Info("watching source image", slog.String("path", absolute))
	s.emitStatus(status)
	return nil
}

// Stop ends the current watch, if any.
func (s *Service) Stop() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.stop()
}

func (s *Service) stop() error {
	s.mu.Lock()
	watcher := s.watcher
	done := s.done
	s.watcher = nil
	s.done = nil
	s.path = ""
	status := s.statusLocked()
	s.mu.Unlock()

	if watcher == nil {
		return nil
	}

	err := watcher.Close()
	<-done
	s.emitStatus(status)
	if err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}
	return nil
}

func (s *Service) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Service) loop(watcher *fsnotify.Watcher, target string, done chan struct{}) {
	defer func() {
		s.running.Add(-1)
		close(done)
	}()

	debounced := debounce.New(s.delay)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			debounced(func() {
				s.runReload(target)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.recordError(err)
		}
	}
}

func (s *Service) runReload(target string) {
	s.mu.Lock()
	current := s.path
	s.mu.Unlock()
	if current != target {
		return
	}

	if err := s.reload(target); err != nil {
		s.recordError(err)
		return
	}

	s.mu.Lock()
	s.reloads++
	s.lastReload = time.Now().UTC()
	s.lastError = ""
	status := s.statusLocked()
	s.mu.Unlock()

	logging.Logger().Debug("reloaded source image", slog.String("path", target))
	s.emitStatus(status)
}

func (s *Service) recordError(err error) {
	logging.Logger().Warn("source image watch error", slog.Any("err", err))

	s.mu.Lock()
	s.lastError = err.Error()
	status := s.statusLocked()
	s.mu.Unlock()

	s.emitStatus(status)
}

func (s *Service) emitStatus(status Status) {
	s.mu.Lock()
	emitter := s.emit
	s.mu.Unlock()

	if emitter != nil {
		emitter(EventStatus, status)
	}
}

func (s *Service) statusLocked() Status {
	status := Status{
		Watching:  s.watcher != nil,
		Path:      s.path,
		Reloads:   s.reloads,
		LastError: s.lastError,
	}
	if !s.lastReload.IsZero() {
		status.LastReloadAt = s.lastReload.Format(time.RFC3339)
	}
	return status
}
