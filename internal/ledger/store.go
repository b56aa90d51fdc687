package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/quailyquaily/mucbot/internal/fsstore"
	"github.com/quailyquaily/mucbot/internal/logutil"
	"github.com/quailyquaily/mucbot/internal/retryutil"
)

type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
	Retry  retryutil.Policy

	// ReadOnly loads the file without touching the directory: stale temp
	// files are kept (a running bot may be mid-save) and Save fails.
	ReadOnly bool
}

// Store holds the ledger in memory and commits a full snapshot to disk after
// every mutation. Balance checks and the writes that depend on them happen
// under one lock, so callers never see a check-then-act race.
type Store struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
	retry  retryutil.Policy
	ro     bool

	mu    sync.Mutex
	state State

	saveMu sync.Mutex
}

// Open loads path. A missing or unreadable document starts an empty ledger;
// the bad file is left in place until the first successful save replaces it.
func Open(path string, opts Options) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: empty ledger path", fsstore.ErrInvalidPath)
	}
	s := &Store{
		path:   path,
		logger: logutil.OrDefault(opts.Logger),
		now:    opts.Now,
		retry:  opts.Retry,
		ro:     opts.ReadOnly,
		state:  newState(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if !s.ro {
		if n, err := fsstore.RemoveStaleTemps(path); err == nil && n > 0 {
			s.logger.Info("ledger_stale_temps_removed", "path", path, "count", n)
		}
	}

	var loaded State
	ok, err := fsstore.ReadJSON(path, &loaded)
	switch {
	case err != nil:
		s.logger.Warn("ledger_load_failed", "path", path, "error", err.Error())
	case ok:
		loaded.normalize()
		s.state = loaded
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// Save commits the current state, retrying with backoff.
func (s *Store) Save(ctx context.Context) error {
	if s.ro {
		return ErrReadOnly
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	data, err := fsstore.EncodeJSON(s.state)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %v", fsstore.ErrEncodeFailed, err)
	}
	return retryutil.Do(ctx, s.logger, "ledger_save", s.retry, func(context.Context) error {
		err := fsstore.WriteEncodedAtomic(s.path, data, fsstore.FileOptions{})
		if errors.Is(err, fsstore.ErrInvalidPath) {
			return retryutil.Permanent(err)
		}
		return err
	})
}

// commit persists after a mutation. Failures are logged and memory stays
// ahead of disk until the next successful save.
func (s *Store) commit(ctx context.Context) {
	if err := s.Save(ctx); err != nil {
		s.logger.Error("ledger_save_failed", "path", s.path, "error", err.Error())
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) userLocked(room, nick string) *UserRecord {
	r := s.state.Rooms[room]
	if r == nil {
		r = &Room{Users: map[string]*UserRecord{}}
		s.state.Rooms[room] = r
	}
	u := r.Users[nick]
	if u == nil {
		u = &UserRecord{}
		r.Users[nick] = u
	}
	return u
}

func (s *Store) lookupLocked(room, nick string) (*UserRecord, bool) {
	r := s.state.Rooms[room]
	if r == nil {
		return nil, false
	}
	u, ok := r.Users[nick]
	return u, ok && u != nil
}

// RecordActivity adds the one point every observed room message earns and
// stamps last_seen. It returns the new total.
func (s *Store) RecordActivity(ctx context.Context, room, nick string) int {
	s.mu.Lock()
	u := s.userLocked(room, nick)
	u.Points++
	u.LastSeen = s.now().Format(timeLayout)
	total := u.Points
	s.mu.Unlock()

	s.commit(ctx)
	return total
}

// Award credits amount to nick, creating the record if needed.
func (s *Store) Award(ctx context.Context, room, nick string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	s.mu.Lock()
	u := s.userLocked(room, nick)
	u.Points += amount
	total := u.Points
	s.mu.Unlock()

	s.commit(ctx)
	return total, nil
}

func (s *Store) Points(room, nick string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.lookupLocked(room, nick)
	if !ok {
		return 0, false
	}
	return u.Points, true
}

// Debit removes amount if the balance covers it. The balance is never
// clamped: a short balance is ErrInsufficientBalance and nothing changes.
func (s *Store) Debit(ctx context.Context, room, nick string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	s.mu.Lock()
	u, ok := s.lookupLocked(room, nick)
	if !ok || u.Points < amount {
		s.mu.Unlock()
		return 0, ErrInsufficientBalance
	}
	u.Points -= amount
	total := u.Points
	s.mu.Unlock()

	s.commit(ctx)
	return total, nil
}

// Transfer moves amount from one member to another in the same room.
func (s *Store) Transfer(ctx context.Context, room, from, to string, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	src, ok := s.lookupLocked(room, from)
	if !ok || src.Points < amount {
		s.mu.Unlock()
		return ErrInsufficientBalance
	}
	src.Points -= amount
	s.userLocked(room, to).Points += amount
	s.mu.Unlock()

	s.commit(ctx)
	return nil
}

func (s *Store) Zero(ctx context.Context, room, nick string) error {
	s.mu.Lock()
	u, ok := s.lookupLocked(room, nick)
	if !ok {
		s.mu.Unlock()
		return ErrUserNotFound
	}
	u.Points = 0
	s.mu.Unlock()

	s.commit(ctx)
	return nil
}

// ZeroAll resets every member of room and returns how many were reset.
func (s *Store) ZeroAll(ctx context.Context, room string) (int, error) {
	s.mu.Lock()
	r := s.state.Rooms[room]
	if r == nil {
		s.mu.Unlock()
		return 0, ErrRoomNotFound
	}
	for _, u := range r.Users {
		u.Points = 0
	}
	n := len(r.Users)
	s.mu.Unlock()

	s.commit(ctx)
	return n, nil
}

func (s *Store) HasRoom(room string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.Rooms[room]
	return ok
}

// Top returns up to n members by points, highest first. Ties are ordered by
// nickname so the board is stable across restarts.
func (s *Store) Top(room string, n int) ([]Standing, error) {
	s.mu.Lock()
	r := s.state.Rooms[room]
	if r == nil {
		s.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	out := make([]Standing, 0, len(r.Users))
	for nick, u := range r.Users {
		out = append(out, Standing{Nick: nick, Points: u.Points})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Nick < out[j].Nick
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Members lists the nicknames with a record in room, sorted.
func (s *Store) Members(room string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.state.Rooms[room]
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Users))
	for nick := range r.Users {
		out = append(out, nick)
	}
	sort.Strings(out)
	return out
}

func (s *Store) Rooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.state.Rooms))
	for name := range s.state.Rooms {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *Store) IsAdmin(nick string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminIndexLocked(nick) >= 0
}

func (s *Store) Admins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.state.Admins...)
}

// GrantAdmin adds nick to the admin set and reports whether it was added.
func (s *Store) GrantAdmin(ctx context.Context, nick string) bool {
	s.mu.Lock()
	if s.adminIndexLocked(nick) >= 0 {
		s.mu.Unlock()
		return false
	}
	s.state.Admins = append(s.state.Admins, nick)
	s.mu.Unlock()

	s.commit(ctx)
	return true
}

// RevokeAdmin removes nick and reports whether it was present.
func (s *Store) RevokeAdmin(ctx context.Context, nick string) bool {
	s.mu.Lock()
	i := s.adminIndexLocked(nick)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.state.Admins = append(s.state.Admins[:i], s.state.Admins[i+1:]...)
	s.mu.Unlock()

	s.commit(ctx)
	return true
}

func (s *Store) adminIndexLocked(nick string) int {
	for i, a := range s.state.Admins {
		if a == nick {
			return i
		}
	}
	return -1
}

func (s *Store) LogInsult(ctx context.Context, room, nick, msg string) {
	s.mu.Lock()
	s.state.Insults[room] = append(s.state.Insults[room], InsultEntry{
		Nick: nick,
		Msg:  msg,
		Time: s.now().Format(timeLayout),
	})
	s.mu.Unlock()

	s.commit(ctx)
}

func (s *Store) Insults(room string) []InsultEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]InsultEntry(nil), s.state.Insults[room]...)
}
