// Package anim schedules attribute animations for a diagram surface.
// The scheduler runs only while animations are in progress: it asks
// the host for one frame at a time and goes quiet when the active set
// empties, resuming when something new is scheduled.
package anim

import (
	"errors"
	"math"
	"time"
)

// Kind is the closed set of animation step behaviors.
type Kind uint8

const (
	// KindCross moves an entity in a straight line to a destination.
	KindCross Kind = iota
	// KindPath moves an entity through waypoints at constant speed
	// along the polyline.
	KindPath
	// KindMotion is reserved for live-motion easing. Its step is a
	// no-op; the behavior was never implemented upstream and is kept
	// as an explicit gap rather than guessed at.
	KindMotion
)

// Entity is the animated target. Animations mutate it in place; the
// scheduler references entities but never owns them, and nothing stops
// two animations from targeting the same entity (later writers win
// within a tick).
type Entity interface {
	Position() (x, y float64)
	SetPosition(x, y float64)
	Angle() float64
	SetAngle(angle float64)
}

// Surface is redrawn exactly once per tick after all due animations
// have stepped.
type Surface interface {
	Draw()
}

// ErrMismatchedPath rejects path calls whose coordinate slices differ
// in length.
var ErrMismatchedPath = errors.New("x and y coordinate counts differ")

type crossParams struct {
	startX, startY float64
	x, y           float64
	angle          float64 // destination angle, recorded but not eased
}

type pathParams struct {
	xs, ys []float64
	// segmentRatios[i] is the cumulative distance ratio along the
	// whole path at waypoint i, precomputed at schedule time.
	segmentRatios []float64
}

// Animation is one in-flight interpolation. Owned by the scheduler;
// removed from the active set the moment its raw progress reaches 1.
type Animation struct {
	kind     Kind
	entity   Entity
	start    time.Time
	duration time.Duration
	fn       TimingFunc
	cross    crossParams
	path     pathParams
}

func (a *Animation) Kind() Kind { return a.kind }

// Scheduler maintains the active animations for one surface.
// Single-threaded cooperative: every method, including the frame
// callbacks, must run on the host's frame context.
type Scheduler struct {
	surface      Surface
	requestFrame func(func())
	now          func() time.Time

	inProgress []*Animation
	animating  bool
}

// NewScheduler binds a surface to the host's per-frame primitive.
// requestFrame must invoke its callback once, on the next frame
// (requestAnimationFrame semantics).
func NewScheduler(surface Surface, requestFrame func(func())) *Scheduler {
	return &Scheduler{
		surface:      surface,
		requestFrame: requestFrame,
		now:          time.Now,
	}
}

// SetClock replaces the wall clock, for deterministic tests.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Animating reports whether the scheduler currently holds a frame
// request.
func (s *Scheduler) Animating() bool { return s.animating }

// Pending returns the number of in-flight animations.
func (s *Scheduler) Pending() int { return len(s.inProgress) }

// Cross animates an entity from its current position in a straight
// line to (x, y) over duration, starting after delay. A zero angle
// keeps the entity's current angle; either way the angle is stored on
// the animation but not interpolated.
func (s *Scheduler) Cross(e Entity, duration, delay time.Duration, x, y, angle float64, fn TimingFunc) *Animation {
	sx, sy := e.Position()
	if angle == 0 {
		angle = e.Angle()
	}
	a := s.add(KindCross, e, duration, delay, fn)
	a.cross = crossParams{startX: sx, startY: sy, x: x, y: y, angle: angle}
	return a
}

// Path animates an entity through the given waypoints, with its
// current position prepended as the first. Segment lengths and
// cumulative ratios are computed once here; ticks only interpolate.
func (s *Scheduler) Path(e Entity, duration, delay time.Duration, xs, ys []float64, fn TimingFunc) (*Animation, error) {
	if len(xs) != len(ys) {
		return nil, ErrMismatchedPath
	}
	px, py := e.Position()
	wx := append([]float64{px}, xs...)
	wy := append([]float64{py}, ys...)

	total := 0.0
	dists := make([]float64, len(wx))
	for i := 1; i < len(wx); i++ {
		dists[i] = math.Hypot(wx[i]-wx[i-1], wy[i]-wy[i-1])
		total += dists[i]
	}
	ratios := make([]float64, len(wx))
	run := 0.0
	for i, d := range dists {
		run += d
		if total > 0 {
			ratios[i] = run / total
		} else {
			// Degenerate path: every waypoint coincides. All ratios
			// collapse to 1 so the step pins the entity in place
			// instead of dividing by zero.
			ratios[i] = 1
		}
	}

	a := s.add(KindPath, e, duration, delay, fn)
	a.path = pathParams{xs: wx, ys: wy, segmentRatios: ratios}
	return a, nil
}

func (s *Scheduler) add(kind Kind, e Entity, duration, delay time.Duration, fn TimingFunc) *Animation {
	if fn == nil {
		fn = Linear
	}
	a := &Animation{
		kind:     kind,
		entity:   e,
		start:    s.now().Add(delay),
		duration: duration,
		fn:       fn,
	}
	s.inProgress = append(s.inProgress, a)
	s.startAnimating()
	return a
}

func (s *Scheduler) startAnimating() {
	if s.animating || len(s.inProgress) == 0 {
		return
	}
	s.animating = true
	s.requestFrame(s.tick)
}

// tick advances every due animation, redraws the surface once, and
// either requests the next frame or suspends. Progress is computed
// from wall-clock timestamps, so missed host frames don't distort it.
func (s *Scheduler) tick() {
	now := s.now()

	remaining := s.inProgress[:0]
	for _, a := range s.inProgress {
		if a.start.After(now) {
			remaining = append(remaining, a)
			continue
		}
		raw := 1.0
		if a.duration > 0 {
			raw = math.Min(float64(now.Sub(a.start))/float64(a.duration), 1)
		}
		a.step(a.fn(raw))
		// Completion tests raw progress: a timing function need not
		// reach 1 monotonically before the clock does.
		if raw < 1 {
			remaining = append(remaining, a)
		}
	}
	s.inProgress = remaining

	s.surface.Draw()

	if len(s.inProgress) == 0 {
		s.animating = false
		return
	}
	s.requestFrame(s.tick)
}

func (a *Animation) step(progress float64) {
	switch a.kind {
	case KindCross:
		c := a.cross
		progressAlongLine(a.entity, c.startX, c.startY, c.x, c.y, progress)
	case KindPath:
		stepPath(a.entity, a.path, progress)
	case KindMotion:
		// no-op, see KindMotion
	}
}

func progressAlongLine(e Entity, x1, y1, x2, y2, progress float64) {
	e.SetPosition(x1+(x2-x1)*progress, y1+(y2-y1)*progress)
}

func stepPath(e Entity, p pathParams, progress float64) {
	if len(p.xs) < 2 {
		return // single-waypoint path: already at destination
	}
	seg := 0
	for seg+1 < len(p.segmentRatios)-1 && p.segmentRatios[seg+1] < progress {
		seg++
	}
	start, end := p.segmentRatios[seg], p.segmentRatios[seg+1]
	segProgress := 1.0
	if end > start {
		segProgress = (progress - start) / (end - start)
	}
	progressAlongLine(e, p.xs[seg], p.ys[seg], p.xs[seg+1], p.ys[seg+1], segProgress)
}
