package airesponder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quailyquaily/mucbot/internal/ledger"
	"github.com/quailyquaily/mucbot/internal/logutil"
	"github.com/quailyquaily/mucbot/llm"
	"golang.org/x/sync/semaphore"
)

const DefaultCost = 5

var (
	ErrInsufficientBalance = errors.New("airesponder: insufficient balance")
	ErrGenerationFailed    = errors.New("airesponder: generation failed")
)

// Wallet is the part of the ledger the responder charges against.
type Wallet interface {
	Debit(ctx context.Context, room, nick string, amount int) (int, error)
	Award(ctx context.Context, room, nick string, amount int) (int, error)
}

type Options struct {
	Cost    int
	Persona string
	Logger  *slog.Logger
}

// Responder runs one generation at a time across the whole process. The
// balance check, the debit and the refund all happen inside that slot.
type Responder struct {
	client  llm.Client
	wallet  Wallet
	sem     *semaphore.Weighted
	cost    int
	persona string
	logger  *slog.Logger
}

func New(client llm.Client, wallet Wallet, opts Options) *Responder {
	cost := opts.Cost
	if cost <= 0 {
		cost = DefaultCost
	}
	persona := strings.TrimSpace(opts.Persona)
	if persona == "" {
		persona = DefaultPersona
	}
	return &Responder{
		client:  client,
		wallet:  wallet,
		sem:     semaphore.NewWeighted(1),
		cost:    cost,
		persona: persona,
		logger:  logutil.OrDefault(opts.Logger),
	}
}

func (r *Responder) Cost() int {
	return r.cost
}

// Respond answers text for nick in room. Admins are never charged. Anyone
// else pays the cost up front and gets it back if generation fails.
func (r *Responder) Respond(ctx context.Context, room, nick, text string, admin bool) (string, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer r.sem.Release(1)

	prompt, err := BuildPrompt(r.persona, nick, text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if !admin {
		if _, err := r.wallet.Debit(ctx, room, nick, r.cost); err != nil {
			if errors.Is(err, ledger.ErrInsufficientBalance) {
				return "", ErrInsufficientBalance
			}
			return "", err
		}
	}

	answer, err := r.generate(ctx, prompt)
	if err != nil {
		r.logger.Error("ai_generate_failed", "room", room, "nick", nick, "error", err.Error())
		if !admin {
			if _, refundErr := r.wallet.Award(context.WithoutCancel(ctx), room, nick, r.cost); refundErr != nil {
				r.logger.Error("ai_refund_failed", "room", room, "nick", nick, "error", refundErr.Error())
			}
		}
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return answer, nil
}

// Complete runs an uncharged generation in the same single slot.
func (r *Responder) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer r.sem.Release(1)
	answer, err := r.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return answer, nil
}

func (r *Responder) generate(ctx context.Context, prompt string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("no llm client configured")
	}
	res, err := r.client.Chat(ctx, llm.UserPrompt(prompt))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	r.logger.Debug("ai_generated", "duration", res.Duration.String(), "tokens", res.Usage.TotalTokens)
	return text, nil
}
