// Package anim is a cooperative animation scheduler. Nothing here spawns
// goroutines or owns a clock: the host steps the scheduler (a TUI from its
// frame tick, tests with a synthetic clock) and all callbacks fire inline on
// the stepping goroutine. That keeps every animated mutation on a single
// goroutine, so the packages built on top need no locking.
package anim

import (
	"math"
	"time"
)

// Easing maps linear progress in [0,1] to eased progress in [0,1].
type Easing func(t float64) float64

// EaseLinear is the identity easing.
func EaseLinear(t float64) float64 { return t }

// EaseOutCubic decelerates toward the end. Used for camera glides.
func EaseOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// EaseInOutCubic accelerates then decelerates. Used for crossfades.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

// Spec describes one animation. OnFrame receives eased progress in [0,1]
// and always fires with exactly 1 on the completing step, before
// OnComplete. Either callback may be nil.
type Spec struct {
	Duration   time.Duration
	Easing     Easing
	OnFrame    func(progress float64)
	OnComplete func()
}

// Animation is a running or finished animation handle.
type Animation struct {
	spec     Spec
	start    time.Time
	started  bool
	done     bool
	canceled bool
}

// Done reports whether the animation has completed or been canceled.
func (a *Animation) Done() bool { return a.done || a.canceled }

// Cancel stops the animation in place. No further frames fire and
// OnComplete is skipped; whatever state the last frame wrote stays.
func (a *Animation) Cancel() { a.canceled = true }

// Timer is a pending one-shot callback handle.
type Timer struct {
	deadline time.Time
	fn       func()
	done     bool
	canceled bool
}

// Cancel prevents the timer from firing.
func (t *Timer) Cancel() { t.canceled = true }

// Pending reports whether the timer is still waiting to fire.
func (t *Timer) Pending() bool { return !t.done && !t.canceled }

// Scheduler drives animations and timers. It must only ever be stepped from
// one goroutine.
type Scheduler struct {
	anims  []*Animation
	timers []*Timer
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Animate registers an animation that starts on the next step. A
// non-positive duration completes on that first step (one frame at 1).
func (s *Scheduler) Animate(spec Spec) *Animation {
	if spec.Easing == nil {
		spec.Easing = EaseLinear
	}
	a := &Animation{spec: spec}
	s.anims = append(s.anims, a)
	return a
}

// After registers fn to fire on the first step at or past now+delay.
func (s *Scheduler) After(now time.Time, delay time.Duration, fn func()) *Timer {
	t := &Timer{deadline: now.Add(delay), fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Active reports how many animations and timers are still live. Hosts use
// it to decide whether to keep ticking.
func (s *Scheduler) Active() int {
	n := 0
	for _, a := range s.anims {
		if !a.Done() {
			n++
		}
	}
	for _, t := range s.timers {
		if t.Pending() {
			n++
		}
	}
	return n
}

// Step advances every live animation and timer to now. Callbacks run inline;
// they may register new animations or timers, which start on the next step.
func (s *Scheduler) Step(now time.Time) {
	anims := s.anims
	timers := s.timers

	for _, a := range anims {
		if a.Done() {
			continue
		}
		if !a.started {
			a.started = true
			a.start = now
		}
		p := 1.0
		if a.spec.Duration > 0 {
			p = math.Min(1, float64(now.Sub(a.start))/float64(a.spec.Duration))
		}
		if a.spec.OnFrame != nil {
			a.spec.OnFrame(a.spec.Easing(p))
		}
		// A frame callback may cancel its own animation.
		if a.canceled {
			continue
		}
		if p >= 1 {
			a.done = true
			if a.spec.OnComplete != nil {
				a.spec.OnComplete()
			}
		}
	}

	for _, t := range timers {
		if !t.Pending() || now.Before(t.deadline) {
			continue
		}
		t.done = true
		t.fn()
	}

	s.compact()
}

func (s *Scheduler) compact() {
	live := s.anims[:0]
	for _, a := range s.anims {
		if !a.Done() {
			live = append(live, a)
		}
	}
	s.anims = live

	liveT := s.timers[:0]
	for _, t := range s.timers {
		if t.Pending() {
			liveT = append(liveT, t)
		}
	}
	s.timers = liveT
}
