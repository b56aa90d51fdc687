package ledger

import "time"

// State is the persisted document. Its JSON shape is the on-disk contract:
// {"rooms": {room: {"users": {nick: {...}}}}, "insults": {...}, "admins": [...]}.
type State struct {
	Rooms   map[string]*Room         `json:"rooms"`
	Insults map[string][]InsultEntry `json:"insults"`
	Admins  []string                 `json:"admins"`
}

type Room struct {
	Users map[string]*UserRecord `json:"users"`
}

type UserRecord struct {
	Points   int    `json:"points"`
	LastSeen string `json:"last_seen"`
}

type InsultEntry struct {
	Nick string `json:"nick"`
	Msg  string `json:"msg"`
	Time string `json:"time"`
}

type Standing struct {
	Nick   string
	Points int
}

const timeLayout = time.RFC3339

func newState() State {
	return State{
		Rooms:   map[string]*Room{},
		Insults: map[string][]InsultEntry{},
		Admins:  []string{},
	}
}

func (s *State) normalize() {
	if s.Rooms == nil {
		s.Rooms = map[string]*Room{}
	}
	for name, r := range s.Rooms {
		if r == nil {
			r = &Room{}
			s.Rooms[name] = r
		}
		if r.Users == nil {
			r.Users = map[string]*UserRecord{}
		}
		for nick, u := range r.Users {
			if u == nil {
				r.Users[nick] = &UserRecord{}
			}
		}
	}
	if s.Insults == nil {
		s.Insults = map[string][]InsultEntry{}
	}
	if s.Admins == nil {
		s.Admins = []string{}
	}
}

func (s State) clone() State {
	out := newState()
	for name, r := range s.Rooms {
		users := make(map[string]*UserRecord, len(r.Users))
		for nick, u := range r.Users {
			cp := *u
			users[nick] = &cp
		}
		out.Rooms[name] = &Room{Users: users}
	}
	for room, entries := range s.Insults {
		out.Insults[room] = append([]InsultEntry(nil), entries...)
	}
	out.Admins = append(out.Admins, s.Admins...)
	return out
}
