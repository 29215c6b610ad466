package board

import (
	"log"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/geometry"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/wire"
)

// Apply folds one relay message into the board state. The simulation actor
// calls it between frames, in arrival order. Messages that do not concern
// this board are ignored.
func (bd *Board) Apply(m wire.Message) {
	bd.mu.Lock()
	defer bd.mu.Unlock()

	switch m.Kind {
	case wire.KindJoinHorizontal:
		// h A B places A on the left: A's right wall meets B's left wall.
		if bd.name == m.First {
			bd.joined[WallRight] = m.Second
		}
		if bd.name == m.Second {
			bd.joined[WallLeft] = m.First
		}

	case wire.KindJoinVertical:
		// v A B places A on top: A's bottom wall meets B's top wall.
		if bd.name == m.First {
			bd.joined[WallBottom] = m.Second
		}
		if bd.name == m.Second {
			bd.joined[WallTop] = m.First
		}

	case wire.KindDisconnectWall:
		// Board m.First just occupied its m.Wall side; if we sat there, we
		// were evicted.
		w, err := ParseWall(m.Wall)
		if err != nil {
			log.Printf("[BOARD] %v", err)
			return
		}
		if bd.joined[w.Opposite()] == m.First {
			bd.joined[w.Opposite()] = ""
		}

	case wire.KindAllConnectedBoards:
		bd.connected = make(map[string]bool, len(m.Boards))
		for _, name := range m.Boards {
			bd.connected[name] = true
		}
		// Joins to boards that left the relay dissolve immediately.
		for _, w := range walls {
			if bd.joined[w] != "" && !bd.connected[bd.joined[w]] {
				bd.joined[w] = ""
			}
		}

	case wire.KindTeleportWall:
		w, err := ParseWall(m.Wall)
		if err != nil {
			log.Printf("[BOARD] %v", err)
			return
		}
		bd.injectFromWall(NewBall(m.Ball, geometry.NewVector(m.X, m.Y), geometry.NewVector(m.VX, m.VY)), w)

	case wire.KindTeleportPortal:
		p := bd.findPortal(m.Portal)
		if p == nil {
			log.Printf("[BOARD] teleportPortal= names unknown portal %q, dropping ball %q", m.Portal, m.Ball)
			return
		}
		arriving := NewBall(m.Ball, p.Center(), geometry.NewVector(m.VX, m.VY))
		bd.balls = append(bd.balls, p.Release(arriving))

	case wire.KindConnectPortal:
		bd.portalLive[m.Portal] = true

	case wire.KindDisconnectPortal:
		delete(bd.portalLive, m.Portal)

	case wire.KindFailure:
		log.Printf("[BOARD] relay reported failure; continuing")
	}
}

// ClearJoins empties the wall-join map; the session calls this when the relay
// connection drops and the board returns to standalone play.
func (bd *Board) ClearJoins() {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	for _, w := range walls {
		bd.joined[w] = ""
	}
	bd.connected = make(map[string]bool)
	bd.portalLive = make(map[string]bool)
}

// injectFromWall re-injects a ball handed off by a joined neighbor. The
// component normal to the named wall snaps to BallRadius/2 inside the field;
// the tangential component is kept, clamped into the playfield so a ball
// crossing near a corner still lands inside. If a gadget or ball blocks the
// landing spot the hand-off is refused and the ball vanishes; portals and
// absorbers at the spot capture it instead. Callers hold bd.mu.
func (bd *Board) injectFromWall(b Ball, w Wall) {
	clamp := func(v float64) float64 {
		if v < BallRadius {
			return BallRadius
		}
		if v > L-BallRadius {
			return L - BallRadius
		}
		return v
	}
	pos := b.Pos
	switch w {
	case WallLeft:
		pos = geometry.NewVector(BallRadius/2, clamp(pos.Y))
	case WallRight:
		pos = geometry.NewVector(L-BallRadius/2, clamp(pos.Y))
	case WallTop:
		pos = geometry.NewVector(clamp(pos.X), BallRadius/2)
	case WallBottom:
		pos = geometry.NewVector(clamp(pos.X), L-BallRadius/2)
	}
	arriving := NewBall(b.Name, pos, b.Vel)

	for _, other := range bd.balls {
		if other.Rejects(arriving) {
			log.Printf("[BOARD] hand-off of %q refused: landing spot occupied by ball %q", arriving.Name, other.Name)
			return
		}
	}
	for _, bp := range bd.bumpers {
		if bp.Rejects(arriving) {
			log.Printf("[BOARD] hand-off of %q refused: landing spot inside bumper %q", arriving.Name, bp.Name())
			return
		}
	}
	for _, f := range bd.flippers {
		if f.Rejects(arriving) {
			log.Printf("[BOARD] hand-off of %q refused: landing spot inside flipper %q", arriving.Name, f.Name())
			return
		}
	}
	for _, p := range bd.portals {
		if p.Intersects(arriving) {
			if bd.portalLocal(p) {
				if peer := bd.findPortal(p.Peer()); peer != nil {
					bd.balls = append(bd.balls, peer.Release(arriving))
					return
				}
			}
			break
		}
	}
	for _, a := range bd.absorbers {
		if a.Intersects(arriving) {
			bd.queues[a.Name()] = append(bd.queues[a.Name()], arriving.Name)
			return
		}
	}
	bd.balls = append(bd.balls, arriving)
}
