package guard

import "sort"

// Action names a user-triggered operation with its own guard
type Action string

const (
	ActionConnect    Action = "connect"
	ActionDisconnect Action = "disconnect"
	ActionSign       Action = "sign"
	ActionSend       Action = "send"
	ActionAirdrop    Action = "airdrop"
	ActionSubscribe  Action = "subscribe"
)

// Actions lists every guarded action
var Actions = []Action{
	ActionConnect,
	ActionDisconnect,
	ActionSign,
	ActionSend,
	ActionAirdrop,
	ActionSubscribe,
}

// BusyObserver receives busy flag changes, e.g. to export them as metrics
type BusyObserver interface {
	UpdateGuardBusy(action string, busy bool)
}

// Set holds one independent guard per action. Guards of different actions
// never block each other.
type Set struct {
	guards map[Action]*Guard
}

// NewSet creates open guards for all actions
func NewSet(clock Clock, observer BusyObserver) *Set {
	s := &Set{guards: make(map[Action]*Guard, len(Actions))}
	for _, action := range Actions {
		var onChange func(bool)
		if observer != nil {
			name := string(action)
			onChange = func(busy bool) { observer.UpdateGuardBusy(name, busy) }
		}
		s.guards[action] = New(clock, onChange)
	}
	return s
}

// Get returns the guard of action, or nil for an unknown action
func (s *Set) Get(action Action) *Guard {
	return s.guards[action]
}

// Busy snapshots the busy flag of every action
func (s *Set) Busy() map[string]bool {
	out := make(map[string]bool, len(s.guards))
	for action, g := range s.guards {
		out[string(action)] = g.IsBusy()
	}
	return out
}

// BusyActions lists the actions currently held, sorted by name
func (s *Set) BusyActions() []string {
	var out []string
	for action, busy := range s.Busy() {
		if busy {
			out = append(out, action)
		}
	}
	sort.Strings(out)
	return out
}
