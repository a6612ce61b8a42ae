package stage

import (
	"errors"
	"math"
)

// ErrDuplicateID is returned when a performer id is registered twice.
var ErrDuplicateID = errors.New("performer id already registered")

// Registry is the authoritative mapping of performer id to performer
// state. It is not safe for concurrent use on its own: the hub
// goroutine is the single writer, all mutation arrives through its
// inbox, and Snapshot copies values out so nothing downstream can
// reach registry internals.
type Registry struct {
	performers map[string]*Performer
}

func NewRegistry() *Registry {
	return &Registry{performers: make(map[string]*Performer)}
}

// Upsert registers a new performer at the spawn position. Registering
// an id twice is an error; the existing performer is left untouched.
func (r *Registry) Upsert(id, diagramID string) (Performer, error) {
	if id == "" {
		return Performer{}, errors.New("empty performer id")
	}
	if _, ok := r.performers[id]; ok {
		return Performer{}, ErrDuplicateID
	}
	if diagramID == "" {
		diagramID = DefaultDiagramID
	}
	p := &Performer{ID: id, DiagramID: diagramID, X: SpawnX, Y: SpawnY}
	r.performers[id] = p
	return *p, nil
}

// ApplyMotion moves a known performer and returns its updated copy.
// Unknown ids are ignored: performer existence is only ever
// established by an explicit registration, never fabricated from a
// motion event. Non-finite coordinates are rejected to keep the
// registry invariant that x/y are always finite.
func (r *Registry) ApplyMotion(id string, x, y, angle float64) (Performer, bool) {
	p, ok := r.performers[id]
	if !ok {
		return Performer{}, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return Performer{}, false
	}
	p.X, p.Y, p.Angle = x, y, angle
	return *p, true
}

// Remove deletes a performer. No-op if absent.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.performers[id]; !ok {
		return false
	}
	delete(r.performers, id)
	return true
}

// Get returns a copy of one performer.
func (r *Registry) Get(id string) (Performer, bool) {
	p, ok := r.performers[id]
	if !ok {
		return Performer{}, false
	}
	return *p, true
}

func (r *Registry) Len() int {
	return len(r.performers)
}

// Snapshot copies every performer out. The result is fully detached
// from the registry; later mutations never show through.
func (r *Registry) Snapshot() []Performer {
	out := make([]Performer, 0, len(r.performers))
	for _, p := range r.performers {
		out = append(out, *p)
	}
	return out
}
