package usenet

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"nzbcheck/config"
)

var (
	ErrUnexpectedGreeting = errors.New("unexpected greeting response")
	ErrAuthRejected       = errors.New("authentication rejected")
)

// session owns one NNTP connection for the lifetime of a single article
// check. Nothing here is shared between goroutines.
type session struct {
	conn   net.Conn
	reader *textproto.Reader
	writer *textproto.Writer
	cfg    config.Settings
}

func newSession(conn net.Conn, cfg config.Settings) *session {
	return &session{
		conn:   conn,
		reader: textproto.NewReader(bufio.NewReader(conn)),
		writer: textproto.NewWriter(bufio.NewWriter(conn)),
		cfg:    cfg,
	}
}

func dialSession(ctx context.Context, cfg config.Settings) (*session, error) {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Addr(), err)
	}

	if cfg.TLS {
		tlsConn := tls.Client(conn, &tls.Config{ServerName: cfg.Host})
		hsCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
		if err := tlsConn.HandshakeContext(hsCtx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("tls handshake: %w", err)
		}
		conn = tlsConn
	}

	return newSession(conn, cfg), nil
}

// handshake consumes the greeting and authenticates when a username is
// configured. The USER response code is read but not inspected; only the
// PASS response decides.
func (s *session) handshake() error {
	code, err := s.readResponse()
	if err != nil {
		return fmt.Errorf("read greeting: %w", err)
	}
	if code != 200 {
		return fmt.Errorf("%w: %d", ErrUnexpectedGreeting, code)
	}

	if strings.TrimSpace(s.cfg.Username) == "" {
		return nil
	}

	if _, err := s.command("AUTHINFO USER %s", s.cfg.Username); err != nil {
		return fmt.Errorf("auth user: %w", err)
	}
	code, err = s.command("AUTHINFO PASS %s", s.cfg.Password)
	if err != nil {
		return fmt.Errorf("auth pass: %w", err)
	}
	if code != 281 {
		return fmt.Errorf("%w: code %d", ErrAuthRejected, code)
	}
	return nil
}

// stat asks the server whether the article exists. 223 means present; any
// other response code means absent.
func (s *session) stat(messageID string) (bool, error) {
	id := strings.TrimSpace(messageID)
	if !strings.HasPrefix(id, "<") {
		id = "<" + id + ">"
	}

	code, err := s.command("STAT %s", id)
	if err != nil {
		return false, err
	}
	return code == 223, nil
}

// close sends QUIT and waits briefly for the goodbye. Failures here are
// swallowed: the outcome was already decided and a dying connection must not
// change it. The connection is released unconditionally.
func (s *session) close() {
	if err := s.conn.SetDeadline(time.Now().Add(s.cfg.QuitTimeout)); err == nil {
		if err := s.writer.PrintfLine("QUIT"); err == nil {
			_, _ = s.reader.ReadLine()
		}
	}
	s.conn.Close()
}

func (s *session) command(format string, args ...any) (int, error) {
	if err := s.deadline(); err != nil {
		return 0, err
	}
	if err := s.writer.PrintfLine(format, args...); err != nil {
		return 0, err
	}
	return s.readResponse()
}

func (s *session) readResponse() (int, error) {
	if err := s.deadline(); err != nil {
		return 0, err
	}

	line, err := s.reader.ReadLine()
	if err != nil {
		return 0, err
	}
	if len(line) < 3 {
		return 0, fmt.Errorf("malformed response: %q", line)
	}

	code, err := strconv.Atoi(line[:3])
	if err != nil {
		return 0, fmt.Errorf("invalid response code: %w", err)
	}
	return code, nil
}

func (s *session) deadline() error {
	return s.conn.SetDeadline(time.Now().Add(s.cfg.CommandTimeout))
}
