package board

import (
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/geometry"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/wire"
)

// maxCollisionIterations bounds the per-frame resolution loop so a
// degenerate cluster of mutually tangent objects cannot spin forever.
const maxCollisionIterations = 64

// Update advances the board through one frame budget of delta seconds: it
// repeatedly finds the earliest collision among all (ball, obstacle) pairs,
// advances the world to that moment, and resolves that single impact, until
// the budget is consumed.
func (bd *Board) Update(delta float64) {
	bd.mu.Lock()
	defer bd.mu.Unlock()

	fired := make(map[string]bool) // gadgets already cascaded this frame

	for i := 0; delta >= geometry.Eps14 && i < maxCollisionIterations; i++ {
		tau := bd.timeToNextCollision(delta)
		if tau >= delta {
			bd.step(delta)
			return
		}
		bd.step(tau)
		bd.resolveOne(delta, fired)
		delta -= tau
	}
}

// ApplyFrictionGravity integrates friction and gravity for every free ball
// once per frame with the frame's original budget.
func (bd *Board) ApplyFrictionGravity(delta float64) {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	for i, b := range bd.balls {
		bd.balls[i] = b.Integrate(delta, bd.gravity, bd.friction1, bd.friction2)
	}
}

// step advances every ball along its velocity and every moving flipper along
// its sweep by t seconds. No collision may occur within t. Callers hold
// bd.mu.
func (bd *Board) step(t float64) {
	for i, f := range bd.flippers {
		if f.Flipping() {
			bd.flippers[i] = f.Flip(t)
		}
	}
	for i, b := range bd.balls {
		bd.balls[i] = b.Advance(t)
	}
}

// timeToNextCollision returns the minimum collision time over every (ball,
// obstacle) pair within the foresight window. Callers hold bd.mu.
func (bd *Board) timeToNextCollision(delta float64) float64 {
	min := geometry.Inf
	for i, b := range bd.balls {
		for j, other := range bd.balls {
			if i == j {
				continue
			}
			if t := b.TimeToHit(other, delta); t < min {
				min = t
			}
		}
		for _, bp := range bd.bumpers {
			if t := bp.TimeToHit(b, delta); t < min {
				min = t
			}
		}
		for _, w := range walls {
			if t := geometry.TimeToSegment(w.Segment(), b.Circle(), b.Vel); t < min {
				min = t
			}
		}
		for _, a := range bd.absorbers {
			if t := a.TimeToHit(b, delta); t < min {
				min = t
			}
		}
		for _, p := range bd.portals {
			if !bd.portalEligible(p, b) {
				continue
			}
			if t := p.TimeToHit(b, delta); t < min {
				min = t
			}
		}
		for _, f := range bd.flippers {
			if t := f.TimeToHit(b, delta); t < min {
				min = t
			}
		}
	}
	return min
}

// resolveOne finds the single imminent (ball, obstacle) pair and resolves it.
// Priority on ties: ball-ball, bumper, wall, absorber, portal, flipper.
// Callers hold bd.mu.
func (bd *Board) resolveOne(delta float64, fired map[string]bool) {
	// Ball-ball: equal-mass elastic exchange.
	for i := range bd.balls {
		for j := i + 1; j < len(bd.balls); j++ {
			if bd.balls[i].TimeToHit(bd.balls[j], delta) > geometry.Eps14 {
				continue
			}
			v1, v2 := geometry.ReflectBalls(bd.balls[i].Pos, bd.balls[i].Vel, bd.balls[j].Pos, bd.balls[j].Vel)
			bd.balls[i] = bd.balls[i].WithVelocity(v1)
			bd.balls[j] = bd.balls[j].WithVelocity(v2)
			return
		}
	}

	for i, b := range bd.balls {
		for _, bp := range bd.bumpers {
			if bp.TimeToHit(b, delta) <= geometry.Eps14 {
				bd.balls[i] = bp.Resolve(b)
				bd.fire(bp.Name(), delta, fired)
				return
			}
		}
	}

	for i, b := range bd.balls {
		for _, w := range walls {
			if geometry.TimeToSegment(w.Segment(), b.Circle(), b.Vel) <= geometry.Eps14 {
				bd.resolveWall(i, w)
				return
			}
		}
	}

	for i, b := range bd.balls {
		for _, a := range bd.absorbers {
			if a.TimeToHit(b, delta) <= geometry.Eps14 {
				bd.removeBall(i)
				bd.queues[a.Name()] = append(bd.queues[a.Name()], b.Name)
				bd.fire(a.Name(), delta, fired)
				return
			}
		}
	}

	for i, b := range bd.balls {
		for _, p := range bd.portals {
			if !bd.portalEligible(p, b) {
				continue
			}
			if p.TimeToHit(b, delta) <= geometry.Eps14 {
				bd.resolvePortal(i, p)
				return
			}
		}
	}

	for i, b := range bd.balls {
		for _, f := range bd.flippers {
			if f.TimeToHit(b, delta) <= geometry.Eps14 {
				bd.balls[i] = f.Resolve(b)
				bd.fire(f.Name(), delta, fired)
				return
			}
		}
	}
}

// resolveWall reflects the ball off a border, or hands it off to the joined
// neighbor: the board emits a teleportWall= message and drops the ball
// locally, trusting the peer to re-inject it. Callers hold bd.mu.
func (bd *Board) resolveWall(i int, w Wall) {
	b := bd.balls[i]
	neighbor := bd.joined[w]
	if neighbor == "" {
		bd.balls[i] = b.WithVelocity(geometry.ReflectSegment(w.Segment(), b.Vel))
		return
	}
	bd.removeBall(i)
	bd.outbox = append(bd.outbox, wire.Message{
		Kind:  wire.KindTeleportWall,
		Board: neighbor,
		Ball:  b.Name,
		VX:    b.Vel.X,
		VY:    b.Vel.Y,
		X:     b.Pos.X,
		Y:     b.Pos.Y,
		Wall:  w.String(),
	})
}

// resolvePortal teleports the ball through an eligible portal: locally to the
// peer portal's center, or across the wire via a teleportPortal= message.
// Callers hold bd.mu.
func (bd *Board) resolvePortal(i int, p *Portal) {
	b := bd.balls[i]
	if bd.portalLocal(p) {
		if peer := bd.findPortal(p.Peer()); peer != nil {
			bd.balls[i] = peer.Release(b)
		}
		return
	}
	bd.removeBall(i)
	bd.outbox = append(bd.outbox, wire.Message{
		Kind:   wire.KindTeleportPortal,
		Board:  p.RemoteBoard(),
		Ball:   b.Name,
		VX:     b.Vel.X,
		VY:     b.Vel.Y,
		Portal: p.Peer(),
	})
}

// fire cascades through the trigger map for the gadget that was hit. Each
// action gadget fires at most once per frame, which keeps trigger cycles
// finite. Callers hold bd.mu.
func (bd *Board) fire(name string, remaining float64, fired map[string]bool) {
	for _, action := range bd.triggers[name] {
		if fired[action] {
			continue
		}
		fired[action] = true
		for _, a := range bd.absorbers {
			if a.Name() == action {
				bd.emitFromAbsorber(a)
			}
		}
		for i, f := range bd.flippers {
			if f.Name() == action && !f.Flipping() {
				bd.flippers[i] = f.Flip(remaining)
			}
		}
		bd.fire(action, remaining, fired)
	}
}

// removeBall deletes the ball at index i from the free list. Callers hold
// bd.mu.
func (bd *Board) removeBall(i int) {
	bd.balls = append(bd.balls[:i], bd.balls[i+1:]...)
}
