package usenet

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nzbcheck/config"
)

func testSettings() config.Settings {
	s := config.Default()
	s.Host = "test"
	s.TLS = false
	s.CommandTimeout = time.Second
	s.QuitTimeout = 200 * time.Millisecond
	return s
}

// pipeServer speaks scripted NNTP on the far end of a net.Pipe. It closes its
// side of the pipe when it returns so blocked client I/O fails fast.
type pipeServer struct {
	greeting string
	passCode string
	statSeen atomic.Bool
	done     chan struct{}
}

func startPipeServer(t *testing.T, srv *pipeServer) net.Conn {
	t.Helper()

	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() {
		serverConn.Close()
		clientConn.Close()
	})

	srv.done = make(chan struct{})
	go func() {
		defer close(srv.done)
		defer serverConn.Close()

		writer := bufio.NewWriter(serverConn)
		reader := bufio.NewReader(serverConn)

		fmt.Fprintf(writer, "%s\r\n", srv.greeting)
		writer.Flush()

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(cmd, "AUTHINFO USER"):
				fmt.Fprintf(writer, "381 password required\r\n")
			case strings.HasPrefix(cmd, "AUTHINFO PASS"):
				fmt.Fprintf(writer, "%s\r\n", srv.passCode)
			case strings.HasPrefix(cmd, "STAT "):
				srv.statSeen.Store(true)
				id := strings.TrimSpace(cmd[5:])
				if id == "<item1@test>" || id == "<bare@test>" {
					fmt.Fprintf(writer, "223 0 %s\r\n", id)
				} else {
					fmt.Fprintf(writer, "430 no such article\r\n")
				}
			case cmd == "QUIT":
				fmt.Fprintf(writer, "205 closing connection\r\n")
				writer.Flush()
				return
			default:
				fmt.Fprintf(writer, "500 command not supported\r\n")
			}
			writer.Flush()
		}
	}()

	return clientConn
}

func TestSessionStat(t *testing.T) {
	srv := &pipeServer{greeting: "200 server ready", passCode: "281 ok"}

	settings := testSettings()
	settings.Username = "user"
	settings.Password = "secret"

	sess := newSession(startPipeServer(t, srv), settings)
	require.NoError(t, sess.handshake())

	found, err := sess.stat("<item1@test>")
	require.NoError(t, err)
	assert.True(t, found, "expected article to be present")

	found, err = sess.stat("<missing@test>")
	require.NoError(t, err)
	assert.False(t, found, "expected missing article to report absent")

	// Bare IDs are wrapped in angle brackets before hitting the wire.
	found, err = sess.stat("bare@test")
	require.NoError(t, err)
	assert.True(t, found)

	sess.close()
	<-srv.done
}

func TestSessionSkipsAuthWithoutUsername(t *testing.T) {
	srv := &pipeServer{greeting: "200 server ready", passCode: "481 never asked"}

	sess := newSession(startPipeServer(t, srv), testSettings())
	require.NoError(t, sess.handshake())

	found, err := sess.stat("item1@test")
	require.NoError(t, err)
	assert.True(t, found)

	sess.close()
	<-srv.done
}

func TestSessionRejectsUnexpectedGreeting(t *testing.T) {
	srv := &pipeServer{greeting: "400 service temporarily unavailable"}

	sess := newSession(startPipeServer(t, srv), testSettings())
	err := sess.handshake()
	require.ErrorIs(t, err, ErrUnexpectedGreeting)

	sess.close()
	<-srv.done
}

func TestSessionAuthRejected(t *testing.T) {
	srv := &pipeServer{greeting: "200 server ready", passCode: "481 authentication failed"}

	settings := testSettings()
	settings.Username = "user"
	settings.Password = "wrong"

	sess := newSession(startPipeServer(t, srv), settings)
	err := sess.handshake()
	require.ErrorIs(t, err, ErrAuthRejected)

	sess.close()
	<-srv.done
	assert.False(t, srv.statSeen.Load(), "no STAT may be sent after failed auth")
}
