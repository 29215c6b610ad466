package board

import (
	"fmt"
	"log"
	"sync"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/geometry"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/wire"
)

// Defaults applied when a board file omits the attributes.
const (
	DefaultGravity  = 25
	DefaultFriction = 0.025
)

// KeyBinding maps a keyboard event to a gadget action.
type KeyBinding struct {
	Event  string `json:"event"` // "keydown" or "keyup"
	Key    string `json:"key"`
	Action string `json:"action"`
}

// Board aggregates one playfield: balls, gadgets, walls, trigger wiring, the
// absorber queues, and the wall/portal join state driven by relay messages.
//
// Board follows the monitor pattern: every exported method locks, so the
// simulation actor, the network reader, and the render hub can share one
// instance. All mutation still happens on the simulation actor; the other
// actors only read snapshots or enqueue events that the actor applies.
type Board struct {
	mu sync.Mutex

	name      string
	gravity   float64
	friction1 float64
	friction2 float64

	balls     []Ball
	bumpers   []*Bumper
	absorbers []*Absorber
	flippers  []*Flipper
	portals   []*Portal

	joined     [4]string // wall -> remote board name, "" when unjoined
	connected  map[string]bool
	portalLive map[string]bool // remote portal name -> announced alive

	triggers        map[string][]string // gadget name -> action names, insertion-ordered
	pendingTriggers [][2]string         // unresolved fire lines awaiting a second pass
	queues          map[string][]string // absorber name -> captured ball names, FIFO
	keyBindings     []KeyBinding

	outbox []wire.Message
}

// New creates an empty board with default gravity and friction.
func New(name string) *Board {
	return &Board{
		name:       name,
		gravity:    DefaultGravity,
		friction1:  DefaultFriction,
		friction2:  DefaultFriction,
		connected:  make(map[string]bool),
		portalLive: make(map[string]bool),
		triggers:   make(map[string][]string),
		queues:     make(map[string][]string),
	}
}

func (bd *Board) Name() string {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	return bd.name
}

// SetName renames the board; used only before the first simulation step.
func (bd *Board) SetName(name string) {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	bd.name = name
}

// SetGravity sets the downward acceleration in L/s^2.
func (bd *Board) SetGravity(g float64) {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	bd.gravity = g
}

// SetFriction1 sets the per-second friction coefficient.
func (bd *Board) SetFriction1(mu1 float64) {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	bd.friction1 = mu1
}

// SetFriction2 sets the per-L friction coefficient.
func (bd *Board) SetFriction2(mu2 float64) {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	bd.friction2 = mu2
}

// gadgetExists reports whether any gadget (not ball) carries the name.
// Callers hold bd.mu.
func (bd *Board) gadgetExists(name string) bool {
	for _, g := range bd.bumpers {
		if g.Name() == name {
			return true
		}
	}
	for _, g := range bd.absorbers {
		if g.Name() == name {
			return true
		}
	}
	for _, g := range bd.flippers {
		if g.Name() == name {
			return true
		}
	}
	for _, g := range bd.portals {
		if g.Name() == name {
			return true
		}
	}
	return false
}

func (bd *Board) nameTaken(name string) bool {
	for _, b := range bd.balls {
		if b.Name == name {
			return true
		}
	}
	return bd.gadgetExists(name)
}

func inGrid(x, y int) bool {
	return x >= 0 && x < L && y >= 0 && y < L
}

// AddBall places a ball on the board.
func (bd *Board) AddBall(b Ball) error {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	if bd.nameTaken(b.Name) {
		return fmt.Errorf("board: duplicate name %q", b.Name)
	}
	if b.Pos.X <= 0 || b.Pos.X >= L || b.Pos.Y <= 0 || b.Pos.Y >= L {
		return fmt.Errorf("board: ball %q center (%v, %v) outside the playfield", b.Name, b.Pos.X, b.Pos.Y)
	}
	bd.balls = append(bd.balls, b)
	return nil
}

// AddBumper places a static bumper.
func (bd *Board) AddBumper(bp *Bumper) error {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	if bd.nameTaken(bp.Name()) {
		return fmt.Errorf("board: duplicate name %q", bp.Name())
	}
	if !inGrid(int(bp.pos.X), int(bp.pos.Y)) {
		return fmt.Errorf("board: bumper %q outside the grid", bp.Name())
	}
	bd.bumpers = append(bd.bumpers, bp)
	return nil
}

// AddAbsorber places an absorber and creates its empty queue.
func (bd *Board) AddAbsorber(a *Absorber) error {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	if bd.nameTaken(a.Name()) {
		return fmt.Errorf("board: duplicate name %q", a.Name())
	}
	if a.width < 1 || a.height < 1 ||
		!inGrid(int(a.pos.X), int(a.pos.Y)) ||
		int(a.pos.X)+a.width > L || int(a.pos.Y)+a.height > L {
		return fmt.Errorf("board: absorber %q does not fit the board", a.Name())
	}
	bd.absorbers = append(bd.absorbers, a)
	bd.queues[a.Name()] = nil
	return nil
}

// AddFlipper places a flipper.
func (bd *Board) AddFlipper(f *Flipper) error {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	if bd.nameTaken(f.Name()) {
		return fmt.Errorf("board: duplicate name %q", f.Name())
	}
	if !inGrid(int(f.pos.X), int(f.pos.Y)) {
		return fmt.Errorf("board: flipper %q outside the grid", f.Name())
	}
	bd.flippers = append(bd.flippers, f)
	return nil
}

// AddPortal places a portal. A portal naming a remote board equal to this
// board is treated as local.
func (bd *Board) AddPortal(p *Portal) error {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	if bd.nameTaken(p.Name()) {
		return fmt.Errorf("board: duplicate name %q", p.Name())
	}
	if !inGrid(int(p.pos.X), int(p.pos.Y)) {
		return fmt.Errorf("board: portal %q outside the grid", p.Name())
	}
	bd.portals = append(bd.portals, p)
	return nil
}

// SetTrigger records that hitting trigger fires action. Unknown names do not
// fail: the pair is parked for ResolveTriggers, since board files may forward
// reference.
func (bd *Board) SetTrigger(trigger, action string) {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	if !bd.gadgetExists(trigger) || !bd.gadgetExists(action) {
		bd.pendingTriggers = append(bd.pendingTriggers, [2]string{trigger, action})
		return
	}
	bd.triggers[trigger] = append(bd.triggers[trigger], action)
}

// ResolveTriggers retries every parked trigger pair; pairs that still name
// unknown gadgets are dropped silently.
func (bd *Board) ResolveTriggers() {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	pending := bd.pendingTriggers
	bd.pendingTriggers = nil
	for _, pair := range pending {
		if bd.gadgetExists(pair[0]) && bd.gadgetExists(pair[1]) {
			bd.triggers[pair[0]] = append(bd.triggers[pair[0]], pair[1])
		} else {
			log.Printf("[BOARD] dropping unresolved trigger %s -> %s", pair[0], pair[1])
		}
	}
}

// AddKeyBinding records a key-to-action mapping for the input adapter.
func (bd *Board) AddKeyBinding(kb KeyBinding) {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	bd.keyBindings = append(bd.keyBindings, kb)
}

// KeyBindings returns a copy of the key-to-action mappings.
func (bd *Board) KeyBindings() []KeyBinding {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	return append([]KeyBinding(nil), bd.keyBindings...)
}

// TriggerByName fires a gadget directly, regardless of what caused it: an
// absorber emits a ball, a flipper starts its sweep. Unknown names are a
// no-op.
func (bd *Board) TriggerByName(name string) {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	for _, a := range bd.absorbers {
		if a.Name() == name {
			bd.emitFromAbsorber(a)
			return
		}
	}
	for i, f := range bd.flippers {
		if f.Name() == name {
			bd.startFlip(i)
			return
		}
	}
}

// TriggerKey fires every binding matching the event/key pair.
func (bd *Board) TriggerKey(event, key string) {
	bd.mu.Lock()
	bindings := append([]KeyBinding(nil), bd.keyBindings...)
	bd.mu.Unlock()
	for _, kb := range bindings {
		if kb.Event == event && kb.Key == key {
			bd.TriggerByName(kb.Action)
		}
	}
}

// emitFromAbsorber launches the oldest captured ball, if any. Callers hold
// bd.mu.
func (bd *Board) emitFromAbsorber(a *Absorber) {
	queue := bd.queues[a.Name()]
	if len(queue) == 0 {
		return
	}
	name := queue[0]
	bd.queues[a.Name()] = queue[1:]
	bd.balls = append(bd.balls, a.Emit(name))
}

// startFlip replaces a resting flipper with its moving successor; a flipper
// already flipping ignores the trigger. Callers hold bd.mu.
func (bd *Board) startFlip(i int) {
	if bd.flippers[i].Flipping() {
		return
	}
	bd.flippers[i] = bd.flippers[i].Flip(geometry.Eps16)
}

// JoinState returns the wall-join map: for each wall, the connected remote
// board name or "".
func (bd *Board) JoinState() map[Wall]string {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	state := make(map[Wall]string, 4)
	for _, w := range walls {
		state[w] = bd.joined[w]
	}
	return state
}

// Balls returns a copy of the free-ball list.
func (bd *Board) Balls() []Ball {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	return append([]Ball(nil), bd.balls...)
}

// AbsorberQueue returns a copy of the named absorber's captured-ball queue.
func (bd *Board) AbsorberQueue(name string) []string {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	return append([]string(nil), bd.queues[name]...)
}

// TakeOutbox drains the messages the board wants sent to the relay. The
// simulation actor calls this once per frame.
func (bd *Board) TakeOutbox() []wire.Message {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	out := bd.outbox
	bd.outbox = nil
	return out
}

// PortalAnnouncements returns the connectPortal= messages advertising this
// board's remote-peered portals to the boards they point at.
func (bd *Board) PortalAnnouncements() []wire.Message {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	var out []wire.Message
	for _, p := range bd.portals {
		if p.RemoteBoard() == "" || p.RemoteBoard() == bd.name {
			continue
		}
		out = append(out, wire.Message{
			Kind:   wire.KindConnectPortal,
			Board:  p.RemoteBoard(),
			Portal: p.Name(),
		})
	}
	return out
}

func (bd *Board) findPortal(name string) *Portal {
	for _, p := range bd.portals {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// portalLocal reports whether the portal's peer lives on this board. Callers
// hold bd.mu.
func (bd *Board) portalLocal(p *Portal) bool {
	return p.RemoteBoard() == "" || p.RemoteBoard() == bd.name
}

// portalEligible reports whether the collision scan should consider the
// portal for this ball: local with a present peer, remote with a live
// announced peer, or currently containing the ball. Callers hold bd.mu.
func (bd *Board) portalEligible(p *Portal, b Ball) bool {
	if p.Contains(b) {
		return true
	}
	if bd.portalLocal(p) {
		return bd.findPortal(p.Peer()) != nil
	}
	return bd.connected[p.RemoteBoard()] && bd.portalLive[p.Peer()]
}
