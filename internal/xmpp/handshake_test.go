package xmpp

import (
	"context"
	"encoding/base64"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers each client write with the next scripted reply and
// records what it received.
func fakeServer(t *testing.T, conn net.Conn, replies []string) <-chan []string {
	t.Helper()
	done := make(chan []string, 1)
	go func() {
		var got []string
		buf := make([]byte, 8192)
		for _, reply := range replies {
			n, err := conn.Read(buf)
			if err != nil {
				break
			}
			got = append(got, string(buf[:n]))
			if reply == "" {
				continue
			}
			if _, err := conn.Write([]byte(reply)); err != nil {
				break
			}
		}
		done <- got
	}()
	return done
}

func handshakeReplies(authReply string) []string {
	return []string{
		"<stream:stream from='example.org' id='1' version='1.0'><stream:features><mechanisms xmlns='urn:ietf:params:xml:ns:xmpp-sasl'><mechanism>PLAIN</mechanism></mechanisms></stream:features>",
		authReply,
		"<stream:stream from='example.org' id='2' version='1.0'><stream:features><bind/></stream:features>",
		"<iq type='result' id='b'><bind><jid>bot@example.org/r</jid></bind></iq>",
		"<iq type='result' id='s'/>",
	}
}

func TestHandshakeRunsAllSteps(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	tr := NewTransport(nil)
	tr.Attach(client)
	done := fakeServer(t, server, handshakeReplies("<success xmlns='urn:ietf:params:xml:ns:xmpp-sasl'/>"))

	hs := NewHandshake(tr, Credentials{JID: "bot@example.org", Password: "s3cret", Resource: "r"}, nil)
	res, err := hs.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSessionEstablished, res.State)
	assert.True(t, res.AuthSuccess)
	assert.False(t, res.Verified)

	got := <-done
	require.Len(t, got, 5)
	assert.Contains(t, got[0], "<stream:stream to='example.org'")
	token := base64.StdEncoding.EncodeToString([]byte("\x00bot\x00s3cret"))
	assert.Equal(t, "<auth xmlns='urn:ietf:params:xml:ns:xmpp-sasl' mechanism='PLAIN'>"+token+"</auth>", got[1])
	assert.Contains(t, got[3], "<resource>r</resource>")
	assert.Contains(t, got[4], "urn:ietf:params:xml:ns:xmpp-session")
}

func TestHandshakeIgnoresRejectionByDefault(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	tr := NewTransport(nil)
	tr.Attach(client)
	fakeServer(t, server, handshakeReplies("<failure xmlns='urn:ietf:params:xml:ns:xmpp-sasl'><not-authorized/></failure>"))

	res, err := NewHandshake(tr, Credentials{JID: "bot@example.org", Password: "bad"}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSessionEstablished, res.State)
	assert.False(t, res.AuthSuccess)
}

func TestHandshakeVerifyReportsRejection(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	tr := NewTransport(nil)
	tr.Attach(client)
	fakeServer(t, server, handshakeReplies("<failure xmlns='urn:ietf:params:xml:ns:xmpp-sasl'><not-authorized/></failure>"))

	hs := NewHandshake(tr, Credentials{JID: "bot@example.org", Password: "bad"}, nil)
	hs.Verify = true
	res, err := hs.Run(context.Background())
	require.ErrorIs(t, err, ErrHandshakeRejected)
	assert.Equal(t, StateAuthSent, res.State)
	assert.True(t, res.Verified)
}

func TestHandshakeWaitsForMechanismsAcrossChunks(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	tr := NewTransport(nil)
	tr.Attach(client)
	go func() {
		buf := make([]byte, 8192)
		_, _ = server.Read(buf)
		_, _ = server.Write([]byte("<stream:stream from='example.org'>"))
		_, _ = server.Write([]byte("<stream:features><mecha"))
		_, _ = server.Write([]byte("nisms/></stream:features>"))
		for _, reply := range []string{"<success/>", "<stream:stream>", "<iq type='result'/>", "<iq type='result'/>"} {
			if _, err := server.Read(buf); err != nil {
				return
			}
			_, _ = server.Write([]byte(reply))
		}
	}()

	res, err := NewHandshake(tr, Credentials{JID: "bot@example.org"}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSessionEstablished, res.State)
}

func TestHandshakeEndsOnClosedStream(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	tr := NewTransport(nil)
	tr.Attach(client)
	go func() {
		buf := make([]byte, 1024)
		_, _ = server.Read(buf)
		_ = server.Close()
	}()

	res, err := NewHandshake(tr, Credentials{JID: "bot@example.org"}, nil).Run(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, StateStreamOpened, res.State)
}

func TestTransportSendWithoutConnectionIsNoop(t *testing.T) {
	tr := NewTransport(nil)
	assert.False(t, tr.Connected())
	tr.SendRaw("<presence/>")
	_, err := tr.ReceiveChunk()
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestSessionOpenSendsInitialPresence(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	s := NewSession(Identity{JID: "bot@example.org", Password: "pw", Resource: "r"}, nil)
	s.Transport.Attach(client)
	done := fakeServer(t, server, append(handshakeReplies("<success/>"), ""))

	_, err := s.Open(context.Background())
	require.NoError(t, err)

	got := <-done
	require.Len(t, got, 6)
	assert.Equal(t, InitialPresence, strings.TrimSpace(got[5]))
}
