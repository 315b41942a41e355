package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/0xcro3dile/ragchat-go/internal/config"
	"github.com/0xcro3dile/ragchat-go/internal/domain/ports"
)

// reloadDebounce coalesces the burst of events editors emit for one save.
const reloadDebounce = 250 * time.Millisecond

// configReloader rebuilds the pipeline when the config file changes.
// A file that fails to load or validate leaves the running pipeline in place.
type configReloader struct {
	path    string
	current *config.Config
	watcher ports.FileWatcher
	apply   func(*config.Config) error
	logger  *slog.Logger
	load    func(string) (*config.Config, error)
}

func (r *configReloader) Run(ctx context.Context) error {
	events, err := r.watcher.Watch(ctx, r.path)
	if err != nil {
		return err
	}
	if r.load == nil {
		r.load = config.Load
	}
	r.logger.Info("watching config file", "path", r.path)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Operation == ports.FileDeleted {
				r.logger.Warn("config file removed, keeping current pipeline", "path", ev.Path)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			r.reload()
		}
	}
}

func (r *configReloader) reload() {
	next, err := r.load(r.path)
	if err != nil {
		r.logger.Error("config reload failed, keeping current pipeline", "error", err)
		return
	}
	if next.Server.Addr != r.current.Server.Addr {
		r.logger.Warn("server.addr change requires a restart", "current", r.current.Server.Addr, "configured", next.Server.Addr)
	}
	if err := r.apply(next); err != nil {
		r.logger.Error("config reload failed, keeping current pipeline", "error", err)
		return
	}
	r.current = next
	r.logger.Info("config reloaded", "path", r.path)
}
