package schedule

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	appLog "icsgen/internal/log"
	"icsgen/internal/metric"
)

const (
	TriggerCron   = "cron"
	TriggerWatch  = "watch"
	TriggerManual = "manual"

	defaultDebounce = 250 * time.Millisecond
)

// RebuildFunc regenerates the calendar output. trigger is one of the
// Trigger* constants.
type RebuildFunc func(ctx context.Context, trigger string) error

// Runner calls a RebuildFunc on a cron schedule and, optionally, whenever
// a watched file changes. Rebuilds never overlap.
type Runner struct {
	spec      string
	watchPath string
	rebuild   RebuildFunc

	// Debounce collapses bursts of file events (editors often write a
	// file several times) into one rebuild.
	Debounce time.Duration

	mu sync.Mutex
}

// New validates the cron spec (standard 5-field syntax) and returns a
// Runner. An empty spec disables the schedule; an empty watchPath disables
// file watching.
func New(spec, watchPath string, fn RebuildFunc) (*Runner, error) {
	if fn == nil {
		return nil, errors.New("schedule: rebuild func is nil")
	}
	if spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return nil, fmt.Errorf("schedule: invalid cron spec %q: %w", spec, err)
		}
	}
	return &Runner{
		spec:      spec,
		watchPath: watchPath,
		rebuild:   fn,
		Debounce:  defaultDebounce,
	}, nil
}

// Trigger runs one rebuild synchronously.
func (r *Runner) Trigger(ctx context.Context, trigger string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	err := r.rebuild(ctx, trigger)
	if err != nil {
		metric.RebuildsTotal.WithLabelValues(trigger, "error").Inc()
		appLog.Error("calendar rebuild failed", err, "trigger", trigger)
		return err
	}
	metric.RebuildsTotal.WithLabelValues(trigger, "ok").Inc()
	appLog.Info("calendar rebuilt", "trigger", trigger, "took", time.Since(start))
	return nil
}

// Run blocks until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	if r.spec != "" {
		c := cron.New()
		if _, err := c.AddFunc(r.spec, func() { _ = r.Trigger(ctx, TriggerCron) }); err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		appLog.Info("refresh schedule started", "cron", r.spec)
	}

	if r.watchPath == "" {
		<-ctx.Done()
		return nil
	}
	return r.watch(ctx)
}

func (r *Runner) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("schedule: create watcher: %w", err)
	}
	defer w.Close()

	target, err := filepath.Abs(r.watchPath)
	if err != nil {
		return err
	}
	// Watch the directory: editors frequently replace the file via rename,
	// which would drop a watch placed on the file itself.
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("schedule: watch %s: %w", filepath.Dir(target), err)
	}
	appLog.Info("watching events file", "path", target)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, target) {
				continue
			}
			appLog.Debug("events file changed", "op", ev.Op.String())
			pending = time.After(r.Debounce)
		case <-pending:
			pending = nil
			_ = r.Trigger(ctx, TriggerWatch)
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			appLog.Error("file watcher error", werr)
		}
	}
}

func relevant(ev fsnotify.Event, target string) bool {
	name, err := filepath.Abs(ev.Name)
	if err != nil || name != target {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
