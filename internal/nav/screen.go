package nav

import "strings"

// Action is a labeled choice offered on a screen. Data is what the transport
// hands back when the action is chosen.
type Action struct {
	Label string
	Data  string
}

// Screen is a transport-neutral rendering: a title, a body and rows of actions.
type Screen struct {
	Title   string
	Body    string
	Actions [][]Action

	// ContactRequest, when set, labels a button that shares the user's own
	// phone number. Transports render it apart from Actions.
	ContactRequest string
}

// Text joins title and body the way they are shown to the user.
func (s Screen) Text() string {
	switch {
	case s.Title == "":
		return s.Body
	case s.Body == "":
		return s.Title
	default:
		return s.Title + "\n\n" + s.Body
	}
}

// HasAction reports whether any action on the screen carries data.
func (s Screen) HasAction(data string) bool {
	for _, row := range s.Actions {
		for _, a := range row {
			if a.Data == data {
				return true
			}
		}
	}
	return false
}

// ActionData lists action data in display order.
func (s Screen) ActionData() []string {
	var data []string
	for _, row := range s.Actions {
		for _, a := range row {
			data = append(data, a.Data)
		}
	}
	return data
}

func (s Screen) String() string {
	var b strings.Builder
	b.WriteString(s.Text())
	for _, row := range s.Actions {
		b.WriteString("\n")
		for i, a := range row {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("[" + a.Label + "]")
		}
	}
	return b.String()
}

// Row is a convenience for building a single-row action list.
func Row(actions ...Action) []Action {
	return actions
}
