package nav

import (
	"sync"
	"time"
)

// Session is the navigation record of one conversation. F is the typed form
// the flow fills in; it lives until a terminal state is entered.
type Session[F any] struct {
	mu sync.Mutex

	State     State
	Screen    Screen
	Form      F
	UpdatedAt time.Time

	// MessageId identifies the transport message currently showing Screen, if any.
	MessageId int

	snapshots map[State]Screen
}

func newSession[F any]() *Session[F] {
	return &Session[F]{snapshots: make(map[State]Screen)}
}

// Enter moves to state and stores screen as that state's snapshot.
func (s *Session[F]) Enter(g *Graph, state State, screen Screen) {
	s.State = state
	s.Screen = screen
	s.snapshots[state] = screen
	s.UpdatedAt = time.Now()

	if state == g.Root() {
		// A fresh visit to the root starts a new flow; older snapshots are stale.
		s.snapshots = map[State]Screen{state: screen}
	}
	if g.IsTerminal(state) {
		s.ResetForm()
	}
}

// Back returns to the back target of the current state, redisplaying the
// snapshot stored when that state was last entered. ok is false when the
// current state has no back edge; found is false when the target was never
// rendered in this session and must be rendered fresh.
func (s *Session[F]) Back(g *Graph) (target State, screen Screen, ok, found bool) {
	target, ok = g.BackTarget(s.State)
	if !ok {
		return s.State, s.Screen, false, false
	}

	screen, found = s.snapshots[target]
	if found {
		s.State = target
		s.Screen = screen
		s.UpdatedAt = time.Now()
	}
	return target, screen, true, found
}

// Snapshot returns the stored screen for state.
func (s *Session[F]) Snapshot(state State) (Screen, bool) {
	screen, ok := s.snapshots[state]
	return screen, ok
}

func (s *Session[F]) ResetForm() {
	var zero F
	s.Form = zero
}

// Reset returns the session to an empty record.
func (s *Session[F]) Reset() {
	s.State = ""
	s.Screen = Screen{}
	s.MessageId = 0
	s.snapshots = make(map[State]Screen)
	s.ResetForm()
}
