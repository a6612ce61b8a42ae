package stage

// Internal authoritative performer state.

// Performer is one tracked, positionable entity on stage. Position and
// angle are in stage coordinates (angle in degrees).
type Performer struct {
	ID        string
	DiagramID string
	X, Y      float64
	Angle     float64
}

// Bounds is the rectangular capture volume a tracker device reports
// positions within. It is configuration: set once from the device's
// first state message, never mutated by samples.
type Bounds struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
}

// Valid reports whether both axes have a usable, non-zero width.
// Mapping through zero-width bounds divides by zero, so callers check
// this before the first sample is mapped.
func (b Bounds) Valid() bool {
	return b.MaxX > b.MinX && b.MaxZ > b.MinZ
}
