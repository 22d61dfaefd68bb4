// Package carousel implements the image gallery state machine used by product
// cards and the product detail page: which image is visible, which way the
// transition animates, and when the gallery auto-advances.
//
// The engine is deliberately independent of any UI framework. Callers feed it
// a hover/focus signal and navigation actions; it reports every state change
// through an observer callback. Timers are acquired through a Scheduler so the
// progression is fully deterministic under test.
package carousel

import (
	"sync"
	"time"
)

// Direction indicates which way the most recent transition moved. It drives
// the enter/exit animation pairing of adjacent slides, not just the active one.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Phase is the engine's lifecycle state.
type Phase int

const (
	// Idle: attention lost, index pinned at the first frame, no timers live.
	Idle Phase = iota
	// AutoPlaying: hovered/focused, timer-driven advance.
	AutoPlaying
	// ManualOverride: a user navigation action is being applied and the
	// auto-advance timer is being restarted. Transient; observers see it on
	// the change notification for the manual step.
	ManualOverride
)

func (p Phase) String() string {
	switch p {
	case AutoPlaying:
		return "autoplaying"
	case ManualOverride:
		return "manual"
	default:
		return "idle"
	}
}

// SlideState is the externally visible carousel state.
type SlideState struct {
	Index     int       `json:"index"`
	Direction Direction `json:"-"`
	Phase     Phase     `json:"-"`
}

// CancelFunc releases a pending timer. Safe to call more than once.
type CancelFunc func()

// Scheduler acquires one-shot timers. The default implementation wraps
// time.AfterFunc; tests substitute a deterministic fake.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) CancelFunc
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Default timing. The startup delay keeps quick hover passes from flickering
// the gallery; the interval paces the automatic progression.
const (
	DefaultStartupDelay = 800 * time.Millisecond
	DefaultInterval     = 3 * time.Second
)

// Config tunes an engine instance. Zero values fall back to the defaults.
type Config struct {
	StartupDelay time.Duration
	Interval     time.Duration
	Scheduler    Scheduler
	// OnChange is invoked, with the engine's lock held, after every state
	// change. Callers must not call back into the engine from it.
	OnChange func(SlideState)
}

// Engine drives one gallery instance over an immutable ordered image set.
// All methods are safe for concurrent use; timer callbacks and user input
// callbacks serialize on an internal mutex.
type Engine struct {
	mu sync.Mutex

	images       []string
	idx          int
	dir          Direction
	phase        Phase
	hovered      bool
	closed       bool
	cancel       CancelFunc
	startupDelay time.Duration
	interval     time.Duration
	sched        Scheduler
	onChange     func(SlideState)
}

// New creates an engine for the given image set. The set is copied and never
// mutated for the lifetime of the engine. Sets of length zero or one degrade
// to a static display: no timers are ever started and navigation is a no-op.
func New(images []string, cfg Config) *Engine {
	if cfg.StartupDelay <= 0 {
		cfg.StartupDelay = DefaultStartupDelay
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = realScheduler{}
	}
	return &Engine{
		images:       append([]string(nil), images...),
		startupDelay: cfg.StartupDelay,
		interval:     cfg.Interval,
		sched:        cfg.Scheduler,
		onChange:     cfg.OnChange,
	}
}

// Len returns the image set size.
func (e *Engine) Len() int {
	return len(e.images)
}

// Image returns the image reference at the current index, or "" for an empty set.
func (e *Engine) Image() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.images) == 0 {
		return ""
	}
	return e.images[e.idx]
}

// State returns a snapshot of the current slide state.
func (e *Engine) State() SlideState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return SlideState{Index: e.idx, Direction: e.dir, Phase: e.phase}
}

// SetHover feeds the hover/focus signal.
//
// Gaining attention on a multi-image set arms the startup delay and enters
// AutoPlaying. Losing attention cancels every pending timer and snaps the
// gallery back to its first frame. Single-image and empty sets ignore the
// signal entirely (hover only affects a visual treatment the engine does not
// model).
func (e *Engine) SetHover(hovered bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || len(e.images) < 2 || hovered == e.hovered {
		return
	}
	e.hovered = hovered

	if hovered {
		e.phase = AutoPlaying
		e.arm(e.startupDelay)
		e.notify()
		return
	}

	e.releaseTimer()
	e.idx = 0
	e.dir = Forward
	e.phase = Idle
	e.notify()
}

// Next advances one slide, wrapping from the last index to 0. The wrap still
// counts as a forward transition.
func (e *Engine) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || len(e.images) < 2 {
		return
	}
	e.manual((e.idx+1)%len(e.images), Forward)
}

// Prev steps back one slide, wrapping from 0 to the last index. The wrap
// still counts as a backward transition.
func (e *Engine) Prev() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || len(e.images) < 2 {
		return
	}
	e.manual((e.idx-1+len(e.images))%len(e.images), Backward)
}

// Select jumps to the given index (dot navigation). Direction is forward when
// the target is past the current index, backward when before it. Selecting
// the current index or an out-of-range one is a no-op.
func (e *Engine) Select(target int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || len(e.images) < 2 || target < 0 || target >= len(e.images) || target == e.idx {
		return
	}
	dir := Forward
	if target < e.idx {
		dir = Backward
	}
	e.manual(target, dir)
}

// Close cancels any pending timers and marks the engine dead. Further calls,
// including late timer callbacks, are no-ops. Must be called on unmount;
// a leaked timer would mutate a destroyed instance.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.releaseTimer()
}

// manual applies a user navigation step. Any running timer is cancelled; if
// the gallery is still hovered the auto-advance timer restarts from zero so
// manual interaction does not fight the autoplay cadence. Callers hold e.mu.
func (e *Engine) manual(target int, dir Direction) {
	e.releaseTimer()
	e.phase = ManualOverride
	e.idx = target
	e.dir = dir
	e.notify()

	if e.hovered {
		e.phase = AutoPlaying
		e.arm(e.interval)
	} else {
		e.phase = Idle
	}
}

// tick is the timer callback: advance one slide forward and re-arm.
func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.hovered || len(e.images) < 2 {
		return
	}
	e.idx = (e.idx + 1) % len(e.images)
	e.dir = Forward
	e.phase = AutoPlaying
	e.notify()
	e.arm(e.interval)
}

// arm schedules the next tick, releasing any prior timer first so at most one
// timer is ever live per engine. Callers hold e.mu.
func (e *Engine) arm(d time.Duration) {
	e.releaseTimer()
	e.cancel = e.sched.AfterFunc(d, e.tick)
}

// releaseTimer cancels the pending timer, if any. Callers hold e.mu.
func (e *Engine) releaseTimer() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// notify invokes the observer with the current state. Callers hold e.mu.
func (e *Engine) notify() {
	if e.onChange != nil {
		e.onChange(SlideState{Index: e.idx, Direction: e.dir, Phase: e.phase})
	}
}
