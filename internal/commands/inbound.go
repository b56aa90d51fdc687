package commands

import (
	"strings"

	"github.com/quailyquaily/mucbot/internal/xmpp"
)

type Origin int

const (
	OriginPublic Origin = iota
	OriginPrivateInRoom
	OriginDirect
)

func (o Origin) String() string {
	switch o {
	case OriginPublic:
		return "public"
	case OriginPrivateInRoom:
		return "private_in_room"
	case OriginDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// Inbound is one chat message after origin classification. Room is the
// ledger and trivia scope: the bare room address for room traffic and the
// sender's bare address for direct chats.
type Inbound struct {
	Origin    Origin
	Room      string
	Nick      string
	Body      string
	ReplyTo   string
	ReplyType string
}

type Command struct {
	Inbound
	// Text is the body with bot addressing removed.
	Text string
}

type call struct {
	Command
	admin bool
}

// announceTarget is where room-wide announcements go. Private traffic in a
// room still announces to the room.
func (in Inbound) announceTarget() (string, string) {
	if in.Origin == OriginDirect {
		return in.ReplyTo, in.ReplyType
	}
	return in.Room, xmpp.TypeGroupchat
}

// Classify maps a parsed unit to an Inbound. Units without a body, error and
// headline messages, and room messages without a sender nick are dropped.
func Classify(u xmpp.Unit, conferenceDomain string) (Inbound, bool) {
	if u.Kind != xmpp.KindMessage || !u.HasBody {
		return Inbound{}, false
	}
	body := strings.TrimSpace(u.Body)
	if body == "" {
		return Inbound{}, false
	}
	bare, resource := xmpp.SplitAddress(u.From)
	if bare == "" {
		return Inbound{}, false
	}

	switch u.Type {
	case xmpp.TypeGroupchat:
		if resource == "" {
			return Inbound{}, false
		}
		return Inbound{
			Origin:    OriginPublic,
			Room:      bare,
			Nick:      resource,
			Body:      body,
			ReplyTo:   bare,
			ReplyType: xmpp.TypeGroupchat,
		}, true
	case xmpp.TypeChat, "", "normal":
		if xmpp.IsConferenceAddress(u.From, conferenceDomain) && resource != "" {
			return Inbound{
				Origin:    OriginPrivateInRoom,
				Room:      bare,
				Nick:      resource,
				Body:      body,
				ReplyTo:   u.From,
				ReplyType: xmpp.TypeChat,
			}, true
		}
		nick := xmpp.Localpart(bare)
		if nick == "" {
			nick = bare
		}
		return Inbound{
			Origin:    OriginDirect,
			Room:      bare,
			Nick:      nick,
			Body:      body,
			ReplyTo:   u.From,
			ReplyType: xmpp.TypeChat,
		}, true
	default:
		return Inbound{}, false
	}
}
