package viewer

import (
	"time"

	"github.com/ellehcimzhang/frontseat.github.io/anim"
	"github.com/ellehcimzhang/frontseat.github.io/protocol"
)

// FollowState builds an OnState handler that retargets diagram
// entities toward each pushed performer position, smoothing the jump
// with a cross animation. lookup resolves a performer id to its
// diagram entity; unknown ids are skipped (entities appear via the
// store, not via snapshots).
func FollowState(a *anim.Scheduler, lookup func(id string) anim.Entity, smooth time.Duration) func(protocol.State) {
	return func(st protocol.State) {
		for _, p := range st.Players {
			e := lookup(p.ID)
			if e == nil {
				continue
			}
			x, y := e.Position()
			if x == p.X && y == p.Y {
				continue
			}
			if smooth <= 0 {
				e.SetPosition(p.X, p.Y)
				e.SetAngle(p.Angle)
				continue
			}
			a.Cross(e, smooth, 0, p.X, p.Y, p.Angle, anim.Linear)
			e.SetAngle(p.Angle)
		}
	}
}
