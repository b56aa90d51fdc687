package xmpp

import "strings"

// SplitAddress splits "room@conference.host/nick" into its bare address and
// resource. The resource keeps any further slashes.
func SplitAddress(addr string) (bare string, resource string) {
	addr = strings.TrimSpace(addr)
	if i := strings.IndexByte(addr, '/'); i >= 0 {
		return addr[:i], addr[i+1:]
	}
	return addr, ""
}

func Localpart(jid string) string {
	bare, _ := SplitAddress(jid)
	if i := strings.IndexByte(bare, '@'); i >= 0 {
		return bare[:i]
	}
	return ""
}

func Domain(jid string) string {
	bare, _ := SplitAddress(jid)
	if i := strings.IndexByte(bare, '@'); i >= 0 {
		return bare[i+1:]
	}
	return bare
}

// ResolveRoom turns a bare room name into a room address on the conference
// host. Names that already carry an '@' are used as given.
func ResolveRoom(name string, conferenceDomain string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "@") {
		return name
	}
	return name + "@" + strings.TrimSpace(conferenceDomain)
}

// IsConferenceAddress reports whether addr points into a multi-user chat
// service, which is how private messages sent through a room are recognised.
func IsConferenceAddress(addr string, conferenceDomain string) bool {
	bare, _ := SplitAddress(addr)
	host := Domain(bare)
	if conferenceDomain != "" && strings.EqualFold(host, conferenceDomain) {
		return true
	}
	return strings.Contains(addr, "@conference.")
}
