package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/notepad/pkg/adapters/memory"
	"github.com/aretw0/notepad/pkg/toast"
	"github.com/aretw0/notepad/pkg/viewstate"
)

// Node is one component in the application tree. Status values follow the
// classes of introspection.DefaultStyles (running, suspended, stopped,
// failed...).
type Node struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []Node
}

// Topology describes the running components, ready for
// introspection.TreeDiagram.
func (a *App) Topology() Node {
	a.mu.RLock()
	closed := a.closed
	watcher := a.watcher
	restarts := a.restarts
	a.mu.RUnlock()

	running := func(ok bool) string {
		if closed {
			return "stopped"
		}
		if ok {
			return "running"
		}
		return "suspended"
	}

	storeNode := Node{
		Name:     "Repository",
		Status:   running(true),
		Metadata: map[string]string{"type": "process", "impl": fmt.Sprintf("%T", a.Repository)},
	}
	if s, ok := a.Repository.(*memory.Store); ok {
		st, _ := s.State().(memory.StoreState)
		storeNode.Name = "Store"
		storeNode.Status = running(!st.Closed)
		if st.FaultInjected {
			storeNode.Status = "failed"
		}
		storeNode.Metadata = map[string]string{
			"type":        "process",
			"notes":       strconv.Itoa(st.Notes),
			"seq":         strconv.FormatUint(st.Seq, 10),
			"subscribers": strconv.Itoa(st.Subscribers),
			"list":        st.ListLatency.String(),
			"mutate":      st.MutateLatency.String(),
		}
	}

	ns, _ := a.Notes.State().(viewstate.NotesIntrospection)
	notesNode := Node{
		Name:   "Notes",
		Status: running(ns.Loaded),
		Metadata: map[string]string{
			"type":        "container",
			"notes":       strconv.Itoa(ns.Notes),
			"seq":         strconv.FormatUint(ns.Seq, 10),
			"subscribers": strconv.Itoa(ns.Subscribers),
		},
		Children: []Node{{
			Name:     "Subscription",
			Status:   workerStatus(ns.Worker, closed),
			Metadata: map[string]string{"type": "goroutine"},
		}},
	}
	if ns.LastError != "" {
		notesNode.Status = "failed"
		notesNode.Metadata["error"] = ns.LastError
	}

	ls, _ := a.Login.State().(viewstate.LoginIntrospection)
	loginNode := Node{
		Name:   "Login",
		Status: running(true),
		Metadata: map[string]string{
			"type":      "container",
			"logged_in": strconv.FormatBool(ls.LoggedIn),
		},
	}

	ts, _ := a.Toasts.State().(toast.StateSnapshot)
	toastNode := Node{
		Name:   "Toast",
		Status: running(ts.Active),
		Metadata: map[string]string{
			"type":     "process",
			"shown":    strconv.FormatUint(ts.Shown, 10),
			"duration": ts.DefaultDuration.String(),
		},
	}
	if ts.Active {
		toastNode.Metadata["severity"] = string(ts.Severity)
	}

	root := Node{
		Name:     "Notepad",
		Status:   running(true),
		Metadata: map[string]string{"type": "container"},
		Children: []Node{storeNode, notesNode, loginNode, toastNode},
	}

	if watcher != nil {
		root.Children = append(root.Children, Node{
			Name:   "ConfigWatcher",
			Status: workerStatus(fmt.Sprint(watcher.State().Status), closed),
			Metadata: map[string]string{
				"type":     "goroutine",
				"path":     a.configPath,
				"reloads":  strconv.Itoa(watcher.Reloads()),
				"restarts": strconv.Itoa(restarts),
			},
		})
	}
	return root
}

func workerStatus(status string, closed bool) string {
	if closed {
		return "stopped"
	}
	s := strings.ToLower(status)
	if s == "" {
		return "created"
	}
	return s
}
