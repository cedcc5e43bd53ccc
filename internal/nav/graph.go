package nav

import "fmt"

// State names one screen of a conversational flow.
type State string

// Graph fixes, for every state, the state that "back" returns to. Targets do
// not depend on how a state was reached, so a state with several predecessors
// still has exactly one back edge.
type Graph struct {
	root     State
	back     map[State]State
	terminal map[State]bool
	known    map[State]bool
}

func NewGraph(root State) *Graph {
	return &Graph{
		root:     root,
		back:     make(map[State]State),
		terminal: make(map[State]bool),
		known:    map[State]bool{root: true},
	}
}

// Back declares that "back" from state goes to target.
func (g *Graph) Back(state, target State) *Graph {
	g.back[state] = target
	g.known[state] = true
	g.known[target] = true
	return g
}

// Terminal declares end states. Entering one clears the session's form.
func (g *Graph) Terminal(states ...State) *Graph {
	for _, s := range states {
		g.terminal[s] = true
		g.known[s] = true
	}
	return g
}

// Screens declares states that have neither a back edge nor are terminal.
func (g *Graph) Screens(states ...State) *Graph {
	for _, s := range states {
		g.known[s] = true
	}
	return g
}

func (g *Graph) Root() State {
	return g.root
}

// BackTarget returns where "back" leads from state.
func (g *Graph) BackTarget(state State) (State, bool) {
	target, ok := g.back[state]
	return target, ok
}

func (g *Graph) IsTerminal(state State) bool {
	return g.terminal[state]
}

func (g *Graph) Has(state State) bool {
	return g.known[state]
}

// Validate checks that every back edge stays inside the graph and that
// following back edges from any state reaches the root without a cycle.
func (g *Graph) Validate() error {
	for state := range g.back {
		seen := map[State]bool{state: true}
		current := state
		for current != g.root {
			next, ok := g.back[current]
			if !ok {
				return fmt.Errorf("state %q: back chain stops at %q before reaching %q", state, current, g.root)
			}
			if seen[next] {
				return fmt.Errorf("state %q: back chain cycles at %q", state, next)
			}
			seen[next] = true
			current = next
		}
	}
	return nil
}
