package xmpp

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	KindMessage  = "message"
	KindPresence = "presence"

	TypeGroupchat   = "groupchat"
	TypeChat        = "chat"
	TypeUnavailable = "unavailable"

	mucNamespace = "http://jabber.org/protocol/muc"

	InitialPresence = "<presence/>"
)

// Unit is one parsed top-level message or presence element. Element names
// are compared by local name, so namespace prefixes never matter.
type Unit struct {
	Kind    string
	From    string
	To      string
	Type    string
	ID      string
	Body    string
	HasBody bool
}

type rawUnit struct {
	XMLName xml.Name
	From    string   `xml:"from,attr"`
	To      string   `xml:"to,attr"`
	Type    string   `xml:"type,attr"`
	ID      string   `xml:"id,attr"`
	Body    *rawBody `xml:"body"`
}

type rawBody struct {
	Text string `xml:",chardata"`
}

// ParseUnit validates raw as a single well-formed element and extracts the
// fields the bot reads. Anything else is ErrMalformedUnit.
func ParseUnit(raw string) (Unit, error) {
	dec := xml.NewDecoder(strings.NewReader(raw))
	dec.Strict = true

	var start *xml.StartElement
	for start == nil {
		tok, err := dec.Token()
		if err != nil {
			return Unit{}, fmt.Errorf("%w: %v", ErrMalformedUnit, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			s := t.Copy()
			start = &s
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return Unit{}, fmt.Errorf("%w: text before root element", ErrMalformedUnit)
			}
		case xml.ProcInst, xml.Comment:
		default:
			return Unit{}, fmt.Errorf("%w: unexpected token %T", ErrMalformedUnit, tok)
		}
	}

	var ru rawUnit
	if err := dec.DecodeElement(&ru, start); err != nil {
		return Unit{}, fmt.Errorf("%w: %v", ErrMalformedUnit, err)
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Unit{}, fmt.Errorf("%w: %v", ErrMalformedUnit, err)
		}
		if cd, ok := tok.(xml.CharData); ok && strings.TrimSpace(string(cd)) == "" {
			continue
		}
		return Unit{}, fmt.Errorf("%w: junk after root element", ErrMalformedUnit)
	}

	u := Unit{
		Kind: ru.XMLName.Local,
		From: ru.From,
		To:   ru.To,
		Type: ru.Type,
		ID:   ru.ID,
	}
	if ru.Body != nil {
		u.HasBody = true
		u.Body = ru.Body.Text
	}
	return u, nil
}

func BuildMessage(to string, msgType string, body string) string {
	if msgType == "" {
		msgType = TypeGroupchat
	}
	return fmt.Sprintf("<message to='%s' type='%s'><body>%s</body></message>",
		escapeXML(to), escapeXML(msgType), escapeXML(body))
}

func BuildJoinPresence(room string, nick string) string {
	return fmt.Sprintf("<presence to='%s/%s'><x xmlns='%s'/></presence>",
		escapeXML(room), escapeXML(nick), mucNamespace)
}

func BuildLeavePresence(room string, nick string) string {
	return fmt.Sprintf("<presence to='%s/%s' type='%s'/>",
		escapeXML(room), escapeXML(nick), TypeUnavailable)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	if s == "" {
		return ""
	}
	return xmlEscaper.Replace(s)
}
