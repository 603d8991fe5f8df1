// Package watch re-runs build targets when source files change.
//
// A Watcher maps each changed path to the bindings whose globs match it and
// dispatches those bindings one batch at a time. Changes that arrive while a
// batch runs are collected, de-duplicated by binding name, and dispatched as
// the next batch.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spachava753/assetpipe/internal/models"
	"github.com/spachava753/assetpipe/internal/tool"
	"github.com/spachava753/assetpipe/internal/util"
)

// DefaultDebounce is how long the watcher waits for further changes before
// dispatching.
const DefaultDebounce = 100 * time.Millisecond

// ErrAlreadyStarted is returned when Serve or Watch is called twice.
var ErrAlreadyStarted = errors.New("watcher already started")

// State is the lifecycle state of a Watcher.
type State int32

const (
	Idle State = iota
	Watching
	Dispatching
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Watching:
		return "watching"
	case Dispatching:
		return "dispatching"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// DispatchFunc runs the targets of one binding.
type DispatchFunc func(ctx context.Context, b models.WatchBinding) error

// Watcher dispatches watch bindings in response to file changes.
type Watcher struct {
	bindings     []models.WatchBinding
	byName       map[string]models.WatchBinding
	dispatch     DispatchFunc
	root         string
	debounce     time.Duration
	onDispatched func(bindings []string)

	state atomic.Int32
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a dispatch starts. Zero dispatches
// immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithRoot sets the directory tree observed by Watch.
func WithRoot(dir string) Option {
	return func(w *Watcher) { w.root = dir }
}

// OnDispatched registers fn to be called after each batch with the names of
// the bindings that succeeded.
func OnDispatched(fn func(bindings []string)) Option {
	return func(w *Watcher) { w.onDispatched = fn }
}

// New validates bindings and returns an idle Watcher.
func New(bindings []models.WatchBinding, dispatch DispatchFunc, opts ...Option) (*Watcher, error) {
	if dispatch == nil {
		return nil, errors.New("watch: dispatch function is required")
	}

	w := &Watcher{
		byName:   make(map[string]models.WatchBinding, len(bindings)),
		dispatch: dispatch,
		debounce: DefaultDebounce,
	}
	for _, b := range bindings {
		if err := util.ValidateID(b.Name); err != nil {
			return nil, fmt.Errorf("watch binding: %w", err)
		}
		if _, ok := w.byName[b.Name]; ok {
			return nil, fmt.Errorf("watch binding %q declared twice", b.Name)
		}
		if len(b.Files) == 0 {
			return nil, fmt.Errorf("watch binding %q has no files", b.Name)
		}
		if len(b.Targets) == 0 {
			return nil, fmt.Errorf("watch binding %q has no targets", b.Name)
		}
		if err := tool.ValidatePatterns(b.Files); err != nil {
			return nil, fmt.Errorf("watch binding %q: %w", b.Name, err)
		}
		b.Files = append([]string(nil), b.Files...)
		b.Targets = append([]string(nil), b.Targets...)
		w.bindings = append(w.bindings, b)
		w.byName[b.Name] = b
	}

	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// State returns the current lifecycle state.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

// Match returns the names of the bindings whose globs match path, in
// declaration order.
func (w *Watcher) Match(path string) []string {
	var names []string
	for _, b := range w.bindings {
		// Patterns were validated in New, so MatchAny cannot fail here.
		if ok, _ := tool.MatchAny(b.Files, path); ok {
			names = append(names, b.Name)
		}
	}
	return names
}

// Serve consumes changed paths from events until ctx is done or events is
// closed. Errors received on errs are logged. A failed dispatch is logged and
// does not stop the watcher. When ctx is done, a dispatch in flight runs to
// completion before Serve returns; dispatches run on a context that is not
// cancelled with ctx.
func (w *Watcher) Serve(ctx context.Context, events <-chan string, errs <-chan error) error {
	if !w.state.CompareAndSwap(int32(Idle), int32(Watching)) {
		return ErrAlreadyStarted
	}
	defer w.state.Store(int32(Stopped))

	var (
		pending   []string
		queued    = make(map[string]bool)
		inFlight  chan struct{}
		debounceC <-chan time.Time
	)
	dispatchCtx := context.WithoutCancel(ctx)

	start := func() {
		batch := pending
		pending = nil
		clear(queued)

		w.state.Store(int32(Dispatching))
		done := make(chan struct{})
		inFlight = done
		go func() {
			defer close(done)
			w.runBatch(dispatchCtx, batch)
		}()
	}

	schedule := func() {
		if len(pending) == 0 || inFlight != nil {
			return
		}
		if w.debounce <= 0 {
			start()
			return
		}
		debounceC = time.After(w.debounce)
	}

	for {
		if events == nil && inFlight == nil && len(pending) == 0 {
			slog.Debug("watch event stream closed")
			return nil
		}

		select {
		case <-ctx.Done():
			if inFlight != nil {
				slog.Info("waiting for running build before stopping")
				<-inFlight
			}
			return nil

		case path, ok := <-events:
			if !ok {
				// Flush what is queued without waiting for more changes.
				events = nil
				debounceC = nil
				if inFlight == nil && len(pending) > 0 {
					start()
				}
				continue
			}
			names := w.Match(path)
			if len(names) == 0 {
				continue
			}
			slog.Debug("change detected", "path", path, "bindings", names)
			for _, name := range names {
				if !queued[name] {
					queued[name] = true
					pending = append(pending, name)
				}
			}
			schedule()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watch error", "error", err)

		case <-debounceC:
			debounceC = nil
			if inFlight == nil && len(pending) > 0 {
				start()
			}

		case <-inFlight:
			inFlight = nil
			w.state.Store(int32(Watching))
			if events == nil {
				if len(pending) > 0 {
					start()
				}
				continue
			}
			schedule()
		}
	}
}

func (w *Watcher) runBatch(ctx context.Context, batch []string) {
	var succeeded []string
	for _, name := range batch {
		b := w.byName[name]
		slog.Info("running watch targets", "binding", name, "targets", b.Targets)
		if err := w.safeDispatch(ctx, b); err != nil {
			slog.Error("watch targets failed", "binding", name, "error", err)
			continue
		}
		succeeded = append(succeeded, name)
	}
	if len(succeeded) > 0 && w.onDispatched != nil {
		w.onDispatched(succeeded)
	}
}

func (w *Watcher) safeDispatch(ctx context.Context, b models.WatchBinding) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("dispatch panicked: %v", v)
		}
	}()
	return w.dispatch(ctx, b)
}

// Watch observes the root directory tree with fsnotify and serves the
// resulting changes until ctx is done. Directories created while watching are
// added as well.
func (w *Watcher) Watch(ctx context.Context) error {
	if w.root == "" {
		return errors.New("watch: no root directory configured")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fsw.Close()

	if err := addRecursive(fsw, w.root); err != nil {
		return err
	}
	slog.Info("watching for changes", "root", w.root, "bindings", len(w.bindings))

	fwdCtx, stop := context.WithCancel(ctx)
	defer stop()

	events := make(chan string)
	errs := make(chan error)
	go forward(fwdCtx, fsw, events, errs)

	return w.Serve(ctx, events, errs)
}

// forward translates fsnotify events into changed paths.
func forward(ctx context.Context, fsw *fsnotify.Watcher, events chan<- string, errs chan<- error) {
	defer close(events)
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			// Attribute-only changes are noise from editors and indexers.
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(fsw, ev.Name); err != nil {
						slog.Warn("watching new directory", "path", ev.Name, "error", err)
					}
				}
			}
			select {
			case events <- ev.Name:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			select {
			case errs <- err:
			case <-ctx.Done():
				return
			}
		}
	}
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watching %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
