// Package sim drives a board on a fixed wall-clock cadence. The engine
// goroutine owns all board mutation: relay messages and key triggers arrive
// as queued events and are folded in at frame boundaries, never mid-frame.
package sim

import (
	"log"
	"time"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/board"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/wire"
)

// DefaultFrameInterval is the target simulation cadence.
const DefaultFrameInterval = 20 * time.Millisecond

// eventBuffer bounds the queued events between frames; past that, producers
// drop rather than block the socket reader.
const eventBuffer = 256

// Sender carries the board's outbound messages to the relay. A nil Sender
// leaves the board in standalone mode and outbound hand-offs are dropped.
type Sender interface {
	Send(wire.Message) error
}

// Engine is the simulation actor for one board.
type Engine struct {
	board    *board.Board
	interval time.Duration

	events chan func(*board.Board)
	quit   chan struct{}
	done   chan struct{}

	sender   Sender
	onFrame  func(board.Snapshot)
	lastTick time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterval overrides the frame cadence.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithSender wires the relay session that receives outbound messages.
func WithSender(s Sender) Option {
	return func(e *Engine) { e.sender = s }
}

// WithFrameCallback registers a per-frame snapshot consumer (the render hub).
func WithFrameCallback(fn func(board.Snapshot)) Option {
	return func(e *Engine) { e.onFrame = fn }
}

// New creates an engine around a board.
func New(b *board.Board, opts ...Option) *Engine {
	e := &Engine{
		board:    b,
		interval: DefaultFrameInterval,
		events:   make(chan func(*board.Board), eventBuffer),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Board returns the engine's board for read-only uses (snapshots, key maps).
func (e *Engine) Board() *board.Board {
	return e.board
}

// SetSender wires the relay session after construction; call before Run.
func (e *Engine) SetSender(s Sender) {
	e.sender = s
}

// SetFrameCallback wires the snapshot consumer after construction; call
// before Run.
func (e *Engine) SetFrameCallback(fn func(board.Snapshot)) {
	e.onFrame = fn
}

// Post enqueues an event for the next frame boundary. It never blocks; if
// the queue is full the event is dropped, matching the protocol's best-effort
// hand-off semantics.
func (e *Engine) Post(fn func(*board.Board)) {
	select {
	case e.events <- fn:
	default:
		log.Printf("[SIM] event queue full, dropping event")
	}
}

// PostMessage enqueues a relay message for application between frames.
func (e *Engine) PostMessage(m wire.Message) {
	e.Post(func(b *board.Board) { b.Apply(m) })
}

// Run ticks the simulation until Stop is called. It is the only goroutine
// that mutates the board.
func (e *Engine) Run() {
	defer close(e.done)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.lastTick = time.Now()
	for {
		select {
		case <-e.quit:
			return
		case now := <-ticker.C:
			delta := now.Sub(e.lastTick).Seconds()
			e.lastTick = now
			// A stalled host could hand us a huge delta; cap it so the
			// board does not fast-forward through a wall of collisions.
			if max := 2 * e.interval.Seconds(); delta > max {
				delta = max
			}
			e.Frame(delta)
		}
	}
}

// Frame runs a single simulation frame of delta seconds: queued events first,
// then the collision loop, then friction and gravity, then the outbound
// messages and the snapshot fan-out.
func (e *Engine) Frame(delta float64) {
	for {
		select {
		case fn := <-e.events:
			fn(e.board)
			continue
		default:
		}
		break
	}

	e.board.Update(delta)
	e.board.ApplyFrictionGravity(delta)

	if out := e.board.TakeOutbox(); len(out) > 0 {
		if e.sender == nil {
			log.Printf("[SIM] standalone: dropping %d outbound message(s)", len(out))
		} else {
			for _, m := range out {
				if err := e.sender.Send(m); err != nil {
					log.Printf("[SIM] send failed: %v", err)
					break
				}
			}
		}
	}

	if e.onFrame != nil {
		e.onFrame(e.board.Snapshot())
	}
}

// Stop halts the Run loop and waits for it to exit.
func (e *Engine) Stop() {
	close(e.quit)
	<-e.done
}
