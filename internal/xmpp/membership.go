package xmpp

import "sync"

type Sender interface {
	SendRaw(data string)
}

type membershipEntry struct {
	Room string
	Nick string
}

// Membership tracks joined rooms in join order and emits the presence units
// that enter or leave them.
type Membership struct {
	sender Sender

	mu      sync.Mutex
	entries []membershipEntry
}

func NewMembership(sender Sender) *Membership {
	return &Membership{sender: sender}
}

// Join sends the join presence every time and reports whether the room was
// newly tracked.
func (m *Membership) Join(room string, nick string) bool {
	m.sender.SendRaw(BuildJoinPresence(room, nick))

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Room == room {
			return false
		}
	}
	m.entries = append(m.entries, membershipEntry{Room: room, Nick: nick})
	return true
}

// Leave sends an unavailable presence using the nick the room was joined
// with (or fallbackNick for untracked rooms) and reports whether the room
// was tracked.
func (m *Membership) Leave(room string, fallbackNick string) bool {
	m.mu.Lock()
	nick := fallbackNick
	idx := -1
	for i, e := range m.entries {
		if e.Room == room {
			idx = i
			nick = e.Nick
			break
		}
	}
	if idx >= 0 {
		m.entries = append(m.entries[:idx], m.entries[idx+1:]...)
	}
	m.mu.Unlock()

	m.sender.SendRaw(BuildLeavePresence(room, nick))
	return idx >= 0
}

func (m *Membership) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Room)
	}
	return out
}

func (m *Membership) Contains(room string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Room == room {
			return true
		}
	}
	return false
}
