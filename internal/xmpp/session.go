package xmpp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/quailyquaily/mucbot/internal/logutil"
)

type Identity struct {
	JID      string
	Password string
	Server   string
	Port     int
	Resource string
}

// Session is the single connection the process keeps to its server.
type Session struct {
	Identity  Identity
	Transport *Transport
	Framer    *Framer
	// VerifyHandshake turns on reply checking in the handshake.
	VerifyHandshake bool

	logger *slog.Logger
}

func NewSession(id Identity, logger *slog.Logger) *Session {
	logger = logutil.OrDefault(logger)
	return &Session{
		Identity:  id,
		Transport: NewTransport(logger),
		Framer:    NewFramer(),
		logger:    logger,
	}
}

func (s *Session) Domain() string {
	return Domain(s.Identity.JID)
}

// Open connects, authenticates and announces availability. A transport that
// is already attached is reused.
func (s *Session) Open(ctx context.Context) (HandshakeResult, error) {
	if !s.Transport.Connected() {
		server := s.Identity.Server
		if server == "" {
			server = s.Domain()
		}
		port := s.Identity.Port
		if port <= 0 {
			port = 5222
		}
		if err := s.Transport.Connect(ctx, server, port); err != nil {
			return HandshakeResult{State: StateDisconnected}, err
		}
	}
	hs := NewHandshake(s.Transport, Credentials{
		JID:      s.Identity.JID,
		Password: s.Identity.Password,
		Resource: s.Identity.Resource,
	}, s.logger)
	hs.Verify = s.VerifyHandshake
	res, err := hs.Run(ctx)
	if err != nil {
		return res, err
	}
	s.Transport.SendRaw(InitialPresence)
	return res, nil
}

func (s *Session) SendRaw(data string) {
	s.Transport.SendRaw(data)
}

func (s *Session) SendMessage(to string, msgType string, body string) {
	s.Transport.SendRaw(BuildMessage(to, msgType, body))
}

// Next reads one chunk and returns the units it completed. A framer overflow
// is logged and the stream continues; only transport errors end it.
func (s *Session) Next() ([]string, error) {
	chunk, err := s.Transport.ReceiveChunk()
	if err != nil {
		return nil, err
	}
	units, err := s.Framer.Push(chunk)
	if err != nil {
		if errors.Is(err, ErrFramerBufferExceed) {
			s.logger.Warn("xmpp_buffer_dropped", "error", err.Error())
			return units, nil
		}
		return units, err
	}
	return units, nil
}

func (s *Session) Close() error {
	s.Transport.SendRaw("</stream:stream>")
	return s.Transport.Close()
}
