package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/quailyquaily/mucbot/internal/channelruntime/worker"
	"github.com/quailyquaily/mucbot/internal/commands"
	"github.com/quailyquaily/mucbot/internal/ledger"
	"github.com/quailyquaily/mucbot/internal/logutil"
	"github.com/quailyquaily/mucbot/internal/trivia"
	"github.com/quailyquaily/mucbot/internal/xmpp"
)

// ErrRestartRequested is returned by Run after an admin asked for a restart.
// The caller replaces the process.
var ErrRestartRequested = errors.New("bot: restart requested")

const defaultQueueDepth = 16

type Options struct {
	Identity        xmpp.Identity
	VerifyHandshake bool
	// Rooms are joined right after the session opens. Bare names resolve
	// against the conference domain.
	Rooms          []string
	Commands       commands.Config
	MaxConcurrency int

	Ledger  *ledger.Store
	Info    commands.InfoService
	AI      commands.AI
	Catalog commands.Catalog
	Logger  *slog.Logger
}

// Bot is the application context: one session, its room membership, the
// command engine and the pool that runs commands.
type Bot struct {
	opts       Options
	session    *xmpp.Session
	membership *xmpp.Membership
	engine     *commands.Engine
	logger     *slog.Logger

	restart atomic.Bool
}

func New(opts Options) (*Bot, error) {
	logger := logutil.OrDefault(opts.Logger)
	if strings.TrimSpace(opts.Identity.JID) == "" {
		return nil, fmt.Errorf("bot: xmpp jid is required")
	}
	if opts.Commands.ConferenceDomain == "" {
		opts.Commands.ConferenceDomain = "conference." + xmpp.Domain(opts.Identity.JID)
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 4
	}

	session := xmpp.NewSession(opts.Identity, logger.With("component", "xmpp"))
	session.VerifyHandshake = opts.VerifyHandshake
	b := &Bot{
		opts:       opts,
		session:    session,
		membership: xmpp.NewMembership(session),
		logger:     logger,
	}
	engine, err := commands.New(opts.Commands, commands.Deps{
		Ledger:         opts.Ledger,
		Trivia:         trivia.NewBoard(opts.Catalog.Capitals),
		Rooms:          b.membership,
		Sender:         session,
		Info:           opts.Info,
		AI:             opts.AI,
		Catalog:        opts.Catalog,
		RequestRestart: b.requestRestart,
		Logger:         logger.With("component", "commands"),
	})
	if err != nil {
		return nil, err
	}
	b.engine = engine
	return b, nil
}

// Session exposes the underlying session so callers can attach a
// pre-established connection.
func (b *Bot) Session() *xmpp.Session {
	return b.session
}

func (b *Bot) Rooms() []string {
	return b.membership.List()
}

// Run opens the session, joins the configured rooms and reads units until
// ctx ends, the server closes the stream, or a restart is requested.
func (b *Bot) Run(ctx context.Context) error {
	defer func() { _ = b.session.Close() }()
	stop := context.AfterFunc(ctx, func() { _ = b.session.Close() })
	defer stop()

	res, err := b.session.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("open session: %w", err)
	}
	b.logger.Info("xmpp_session_established", "state", res.State.String(), "verified", res.Verified)

	for _, name := range b.opts.Rooms {
		room := xmpp.ResolveRoom(name, b.opts.Commands.ConferenceDomain)
		if room == "" {
			continue
		}
		b.membership.Join(room, b.opts.Commands.Nick)
		b.logger.Info("room_joined", "room", room)
	}

	pool := worker.NewPool(ctx, b.opts.MaxConcurrency, defaultQueueDepth, b.execute)
	defer pool.Close()

	for {
		units, err := b.session.Next()
		for _, raw := range units {
			b.dispatch(ctx, pool, raw)
		}
		if err == nil {
			continue
		}
		switch {
		case b.restart.Load():
			return ErrRestartRequested
		case ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("session ended: %w", err)
		}
	}
}

// dispatch handles one unit. Side effects that depend on arrival order run
// here; the command itself goes to the room's queue. Nothing a unit does can
// end the loop.
func (b *Bot) dispatch(ctx context.Context, pool *worker.Pool[commands.Command], raw string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("unit_panic", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()

	unit, err := xmpp.ParseUnit(raw)
	if err != nil {
		b.logger.Debug("unit_discarded", "error", err.Error(), "len", len(raw))
		return
	}
	in, ok := commands.Classify(unit, b.opts.Commands.ConferenceDomain)
	if !ok {
		return
	}
	cmd, ok := b.engine.Observe(ctx, in)
	if !ok {
		return
	}
	if err := pool.Submit(ctx, in.Room, cmd); err != nil && ctx.Err() == nil {
		b.logger.Warn("command_enqueue_failed", "room", in.Room, "error", err.Error())
	}
}

func (b *Bot) execute(ctx context.Context, cmd commands.Command) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("command_panic", "room", cmd.Room, "nick", cmd.Nick, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	b.engine.Execute(ctx, cmd)
}

// requestRestart ends the receive loop; Run reports ErrRestartRequested.
func (b *Bot) requestRestart() {
	if b.restart.Swap(true) {
		return
	}
	_ = b.session.Close()
}
