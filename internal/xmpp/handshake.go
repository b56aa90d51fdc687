package xmpp

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/quailyquaily/mucbot/internal/logutil"
)

type HandshakeState int

const (
	StateDisconnected HandshakeState = iota
	StateStreamOpened
	StateMechanismsReceived
	StateAuthSent
	StateBindRequested
	StateSessionEstablished
)

func (s HandshakeState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateStreamOpened:
		return "stream_opened"
	case StateMechanismsReceived:
		return "mechanisms_received"
	case StateAuthSent:
		return "auth_sent"
	case StateBindRequested:
		return "bind_requested"
	case StateSessionEstablished:
		return "session_established"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	mechanismsMarker = "mechanisms"
	saslNamespace    = "urn:ietf:params:xml:ns:xmpp-sasl"
	bindNamespace    = "urn:ietf:params:xml:ns:xmpp-bind"
	sessionNamespace = "urn:ietf:params:xml:ns:xmpp-session"
)

// Stream is the part of Transport the handshake drives.
type Stream interface {
	SendRaw(data string)
	ReceiveChunk() ([]byte, error)
}

type Credentials struct {
	JID      string
	Password string
	Resource string
}

// HandshakeResult records what the server answered at each step. Replies are
// not interpreted unless Verify is set on the Handshake.
type HandshakeResult struct {
	State       HandshakeState
	AuthReply   string
	BindReply   string
	Session     string
	Verified    bool
	AuthSuccess bool
}

type Handshake struct {
	Stream Stream
	Creds  Credentials
	// Verify makes a <failure/> auth reply an error. Off by default: the
	// server's answers are read and dropped, and a rejected login only shows
	// up later as rooms that never answer.
	Verify bool

	logger *slog.Logger
}

func NewHandshake(stream Stream, creds Credentials, logger *slog.Logger) *Handshake {
	return &Handshake{Stream: stream, Creds: creds, logger: logutil.OrDefault(logger)}
}

// Run walks Disconnected → SessionEstablished. Reads block without a
// deadline; cancel ctx and close the transport to abandon a silent server.
func (h *Handshake) Run(ctx context.Context) (HandshakeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	res := HandshakeResult{State: StateDisconnected}
	domain := Domain(h.Creds.JID)

	h.Stream.SendRaw(openStream(domain))
	res.State = StateStreamOpened
	if err := h.waitFor(ctx, mechanismsMarker); err != nil {
		return res, err
	}
	res.State = StateMechanismsReceived

	h.Stream.SendRaw(plainAuth(h.Creds))
	res.State = StateAuthSent
	reply, err := h.readOne(ctx)
	if err != nil {
		return res, err
	}
	res.AuthReply = reply
	res.AuthSuccess = strings.Contains(reply, "<success")
	if h.Verify {
		res.Verified = true
		if strings.Contains(reply, "<failure") {
			return res, fmt.Errorf("%w: %s", ErrHandshakeRejected, strings.TrimSpace(reply))
		}
	}

	h.Stream.SendRaw(openStream(domain))
	if _, err := h.readOne(ctx); err != nil {
		return res, err
	}

	resource := strings.TrimSpace(h.Creds.Resource)
	if resource == "" {
		resource = "mucbot-" + uuid.NewString()[:8]
	}
	h.Stream.SendRaw(fmt.Sprintf("<iq type='set' id='bind_%s'><bind xmlns='%s'><resource>%s</resource></bind></iq>",
		shortID(), bindNamespace, escapeXML(resource)))
	res.State = StateBindRequested
	if res.BindReply, err = h.readOne(ctx); err != nil {
		return res, err
	}

	h.Stream.SendRaw(fmt.Sprintf("<iq type='set' id='sess_%s'><session xmlns='%s'/></iq>", shortID(), sessionNamespace))
	if res.Session, err = h.readOne(ctx); err != nil {
		return res, err
	}
	res.State = StateSessionEstablished
	h.logger.Info("xmpp_session_established", "jid", h.Creds.JID, "resource", resource, "auth_success", res.AuthSuccess)
	return res, nil
}

func (h *Handshake) waitFor(ctx context.Context, marker string) error {
	var seen strings.Builder
	for !strings.Contains(seen.String(), marker) {
		chunk, err := h.readOne(ctx)
		if err != nil {
			return err
		}
		seen.WriteString(chunk)
	}
	return nil
}

func (h *Handshake) readOne(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	chunk, err := h.Stream.ReceiveChunk()
	if err != nil {
		return "", fmt.Errorf("xmpp handshake: %w", err)
	}
	return string(chunk), nil
}

func openStream(domain string) string {
	return fmt.Sprintf("<stream:stream to='%s' xmlns='jabber:client' xmlns:stream='http://etherx.jabber.org/streams' version='1.0'>", escapeXML(domain))
}

func plainAuth(creds Credentials) string {
	token := base64.StdEncoding.EncodeToString([]byte("\x00" + Localpart(creds.JID) + "\x00" + creds.Password))
	return fmt.Sprintf("<auth xmlns='%s' mechanism='PLAIN'>%s</auth>", saslNamespace, token)
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
