package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/quailyquaily/mucbot/internal/infoapi"
	"github.com/quailyquaily/mucbot/internal/ledger"
	"github.com/quailyquaily/mucbot/internal/logutil"
	"github.com/quailyquaily/mucbot/internal/outputfmt"
	"github.com/quailyquaily/mucbot/internal/trivia"
)

const (
	TriviaReward     = 50
	DefaultNewsLimit = 3
	addressingTrim   = " :،؛.-_*/\\"
)

var DefaultRestartKeywords = []string{"ريست", "تحديث"}

type Sender interface {
	SendMessage(to string, msgType string, body string)
}

type Rooms interface {
	Join(room string, nick string) bool
	Leave(room string, fallbackNick string) bool
	List() []string
}

type InfoService interface {
	FetchPrayerTimes(ctx context.Context, city string) (infoapi.PrayerTimes, error)
	FetchWeather(ctx context.Context, city string) (string, error)
	FetchNews(ctx context.Context, limit int) ([]string, error)
	FetchHoroscope(ctx context.Context, sign string) (string, error)
}

type AI interface {
	Respond(ctx context.Context, room, nick, text string, admin bool) (string, error)
	Complete(ctx context.Context, prompt string) (string, error)
	Cost() int
}

type Config struct {
	Nick               string
	PrimaryAdmin       string
	ConferenceDomain   string
	RestartKeywords    []string
	PrayerCity         string
	PrayerCityLabel    string
	DefaultWeatherCity string
	NewsLimit          int
}

type Deps struct {
	Ledger  *ledger.Store
	Trivia  *trivia.Board
	Rooms   Rooms
	Sender  Sender
	Info    InfoService
	AI      AI
	Catalog Catalog
	// RequestRestart is called when an admin sends a restart keyword. The
	// host decides how the process is replaced.
	RequestRestart func()
	Logger         *slog.Logger
	Rand           func(n int) int
}

// Engine turns inbound chat units into ledger mutations and replies.
type Engine struct {
	cfg     Config
	ledger  *ledger.Store
	trivia  *trivia.Board
	rooms   Rooms
	sender  Sender
	info    InfoService
	ai      AI
	catalog Catalog
	restart func()
	logger  *slog.Logger
	rand    func(n int) int
	rules   []rule
}

func New(cfg Config, d Deps) (*Engine, error) {
	if strings.TrimSpace(cfg.Nick) == "" {
		return nil, fmt.Errorf("commands: bot nick is required")
	}
	if d.Ledger == nil {
		return nil, fmt.Errorf("commands: ledger is required")
	}
	if d.Sender == nil {
		return nil, fmt.Errorf("commands: sender is required")
	}
	if len(cfg.RestartKeywords) == 0 {
		cfg.RestartKeywords = DefaultRestartKeywords
	}
	if cfg.NewsLimit <= 0 {
		cfg.NewsLimit = DefaultNewsLimit
	}
	if strings.TrimSpace(cfg.PrayerCityLabel) == "" {
		cfg.PrayerCityLabel = cfg.PrayerCity
	}
	if d.Trivia == nil {
		d.Trivia = trivia.NewBoard(d.Catalog.Capitals)
	}
	if d.Rand == nil {
		d.Rand = rand.IntN
	}
	e := &Engine{
		cfg:     cfg,
		ledger:  d.Ledger,
		trivia:  d.Trivia,
		rooms:   d.Rooms,
		sender:  d.Sender,
		info:    d.Info,
		ai:      d.AI,
		catalog: d.Catalog,
		restart: d.RequestRestart,
		logger:  logutil.OrDefault(d.Logger),
		rand:    d.Rand,
	}
	e.rules = defaultRules()
	return e, nil
}

// IsAdmin reports whether nick holds admin authority. The primary admin
// always does and cannot be revoked.
func (e *Engine) IsAdmin(nick string) bool {
	if nick == "" {
		return false
	}
	if e.cfg.PrimaryAdmin != "" && nick == e.cfg.PrimaryAdmin {
		return true
	}
	return e.ledger.IsAdmin(nick)
}

// Observe applies the per-message side effects in arrival order and returns
// the command to run, if the message carries one. A correct trivia answer
// and a restart keyword both end processing here.
func (e *Engine) Observe(ctx context.Context, in Inbound) (Command, bool) {
	if in.Body == "" || in.Nick == e.cfg.Nick {
		return Command{}, false
	}

	if pair, ok := e.trivia.TryAnswer(in.Room, in.Body); ok {
		if _, err := e.ledger.Award(ctx, in.Room, in.Nick, TriviaReward); err != nil {
			e.logger.Error("trivia_award_failed", "room", in.Room, "nick", in.Nick, "error", err.Error())
		}
		e.logger.Info("trivia_answered", "room", in.Room, "nick", in.Nick, "country", pair.Country)
		to, typ := in.announceTarget()
		e.sender.SendMessage(to, typ, fmt.Sprintf(msgTriviaWin, in.Nick, in.Body, TriviaReward))
		return Command{}, false
	}

	if in.Origin == OriginPublic {
		e.ledger.RecordActivity(ctx, in.Room, in.Nick)
		for _, term := range e.catalog.flaggedIn(in.Body) {
			e.ledger.LogInsult(ctx, in.Room, in.Nick, in.Body)
			e.logger.Info("insult_logged", "room", in.Room, "nick", in.Nick, "term", term)
		}
	}

	if e.isRestartKeyword(in.Body) && e.IsAdmin(in.Nick) {
		e.logger.Warn("restart_requested", "room", in.Room, "nick", in.Nick)
		if e.restart != nil {
			e.restart()
		}
		return Command{}, false
	}

	text, ok := e.address(in)
	if !ok {
		return Command{}, false
	}
	return Command{Inbound: in, Text: text}, true
}

// Execute runs the first rule that matches cmd.
func (e *Engine) Execute(ctx context.Context, cmd Command) {
	admin := e.IsAdmin(cmd.Nick)
	for _, r := range e.rules {
		if !r.match(cmd.Text, admin) {
			continue
		}
		e.logger.Debug("command_matched", "rule", r.name, "room", cmd.Room, "nick", cmd.Nick)
		r.run(ctx, e, call{Command: cmd, admin: admin})
		return
	}
}

// Handle runs Observe and Execute back to back.
func (e *Engine) Handle(ctx context.Context, in Inbound) {
	if cmd, ok := e.Observe(ctx, in); ok {
		e.Execute(ctx, cmd)
	}
}

func (e *Engine) address(in Inbound) (string, bool) {
	if in.Origin != OriginPublic {
		return strings.TrimSpace(in.Body), true
	}
	if !strings.HasPrefix(in.Body, e.cfg.Nick) {
		return "", false
	}
	rest := strings.TrimPrefix(in.Body, e.cfg.Nick)
	return strings.TrimSpace(strings.TrimLeft(rest, addressingTrim)), true
}

func (e *Engine) isRestartKeyword(body string) bool {
	for _, k := range e.cfg.RestartKeywords {
		if body == k {
			return true
		}
	}
	return false
}

func (e *Engine) reply(c call, text string) {
	e.sender.SendMessage(c.ReplyTo, c.ReplyType, text)
}

// swallow logs a collaborator failure. The user gets no reply.
func (e *Engine) swallow(c call, rule string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	e.logger.Warn("command_external_failed", "rule", rule, "room", c.Room, "nick", c.Nick, "error", outputfmt.RedactError(err))
}
