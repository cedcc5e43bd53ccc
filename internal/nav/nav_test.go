package nav

import (
	"sync"
	"testing"
	"time"
)

const (
	stateMenu   State = "menu"
	stateList   State = "list"
	stateDetail State = "detail"
	stateDone   State = "done"
)

type testForm struct {
	Choice string
}

func testGraph() *Graph {
	return NewGraph(stateMenu).
		Back(stateList, stateMenu).
		Back(stateDetail, stateList).
		Terminal(stateDone)
}

func TestGraph_Validate(t *testing.T) {
	if err := testGraph().Validate(); err != nil {
		t.Errorf("Expected valid graph, got %v", err)
	}

	cyclic := NewGraph(stateMenu).Back(stateList, stateDetail).Back(stateDetail, stateList)
	if err := cyclic.Validate(); err == nil {
		t.Errorf("Expected cycle to be reported")
	}

	dangling := NewGraph(stateMenu).Back(stateDetail, stateList)
	if err := dangling.Validate(); err == nil {
		t.Errorf("Expected dangling back chain to be reported")
	}
}

func TestSession_BackRestoresSnapshotVerbatim(t *testing.T) {
	g := testGraph()
	store := NewStore[testForm]()
	session, release := store.Acquire(1)
	defer release()

	menu := Screen{Title: "Menu", Actions: [][]Action{{{Label: "List", Data: "list"}}}}
	list := Screen{Title: "List", Body: "balance at 10:00 is 500", Actions: [][]Action{{{Label: "Item", Data: "item"}}, {{Label: "Back", Data: "back"}}}}
	session.Enter(g, stateMenu, menu)
	session.Enter(g, stateList, list)
	session.Form.Choice = "item"
	session.Enter(g, stateDetail, Screen{Title: "Detail"})

	target, screen, ok, found := session.Back(g)
	if !ok || !found {
		t.Fatalf("Expected back to find a snapshot, got ok=%v found=%v", ok, found)
	}
	if target != stateList || session.State != stateList {
		t.Errorf("Expected to land in %s, got %s", stateList, session.State)
	}
	if screen.Text() != list.Text() || len(screen.Actions) != len(list.Actions) {
		t.Errorf("Expected stored list screen, got %q", screen.Text())
	}
	if session.Form.Choice != "item" {
		t.Errorf("Expected form to survive back navigation")
	}

	_, _, ok, found = session.Back(g)
	if !ok || !found || session.State != stateMenu {
		t.Errorf("Expected second back to reach the menu, got %s", session.State)
	}

	_, _, ok, _ = session.Back(g)
	if ok {
		t.Errorf("Expected no back edge from the root")
	}
}

func TestSession_BackWithoutSnapshot(t *testing.T) {
	g := testGraph()
	store := NewStore[testForm]()
	session, release := store.Acquire(1)
	defer release()

	session.Enter(g, stateDetail, Screen{Title: "Detail"})
	target, _, ok, found := session.Back(g)
	if !ok || found {
		t.Fatalf("Expected back edge without snapshot, got ok=%v found=%v", ok, found)
	}
	if target != stateList {
		t.Errorf("Expected target %s, got %s", stateList, target)
	}
	if session.State != stateDetail {
		t.Errorf("Expected state to stay until the caller renders the target")
	}
}

func TestSession_TerminalClearsForm(t *testing.T) {
	g := testGraph()
	store := NewStore[testForm]()
	session, release := store.Acquire(1)
	defer release()

	session.Enter(g, stateList, Screen{})
	session.Form.Choice = "x"
	session.Enter(g, stateDone, Screen{Title: "Done"})

	if session.Form.Choice != "" {
		t.Errorf("Expected terminal state to clear the form, got %+v", session.Form)
	}
}

func TestSession_RootVisitDropsOldSnapshots(t *testing.T) {
	g := testGraph()
	store := NewStore[testForm]()
	session, release := store.Acquire(1)
	defer release()

	session.Enter(g, stateList, Screen{Title: "old list"})
	session.Enter(g, stateMenu, Screen{Title: "Menu"})

	if _, ok := session.Snapshot(stateList); ok {
		t.Errorf("Expected list snapshot to be dropped on a root visit")
	}
}

func TestStore_SerializesPerKey(t *testing.T) {
	store := NewStore[testForm]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, release := store.Acquire(7)
			session.Form.Choice += "x"
			release()
		}()
	}
	wg.Wait()

	session, release := store.Acquire(7)
	defer release()
	if len(session.Form.Choice) != 50 {
		t.Errorf("Expected 50 serialized updates, got %d", len(session.Form.Choice))
	}
}

func TestStore_Prune(t *testing.T) {
	g := testGraph()
	store := NewStore[testForm]()

	old, release := store.Acquire(1)
	old.Enter(g, stateMenu, Screen{})
	old.UpdatedAt = time.Now().Add(-2 * time.Hour)
	release()

	fresh, release := store.Acquire(2)
	fresh.Enter(g, stateMenu, Screen{})
	release()

	if removed := store.Prune(time.Hour); removed != 1 {
		t.Errorf("Expected 1 pruned session, got %d", removed)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 remaining session, got %d", store.Len())
	}
}

func TestScreen_Helpers(t *testing.T) {
	s := Screen{Title: "T", Body: "B", Actions: [][]Action{Row(Action{"A", "a"}, Action{"B", "b"})}}
	if s.Text() != "T\n\nB" {
		t.Errorf("Unexpected text %q", s.Text())
	}
	if !s.HasAction("b") || s.HasAction("c") {
		t.Errorf("HasAction mismatch")
	}
	if got := s.ActionData(); len(got) != 2 || got[0] != "a" {
		t.Errorf("Unexpected action data %v", got)
	}
}
