package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/textproto"
	"strings"

	"github.com/rbaliyan/groupware/account"
)

// pop3 runs the USER/PASS handshake of RFC 1939, with STLS (RFC 2595)
// when the server asks for STARTTLS.
func (p *Prober) pop3(ctx context.Context, srv account.ServerConfig, login, password string) error {
	conn, err := p.connect(ctx, srv)
	if err != nil {
		return err
	}
	defer func() { conn.Close() }()

	tp := textproto.NewConn(conn)
	if _, err := pop3Reply(tp); err != nil {
		return &Error{Server: srv.URL(), Stage: StageGreeting, Err: err}
	}

	if srv.StartTLS && !srv.Secure {
		if _, err := pop3Cmd(tp, "STLS"); err != nil {
			return &Error{Server: srv.URL(), Stage: StageTLS, Err: err}
		}
		tc := tls.Client(conn, p.tlsConfig(srv))
		if err := tc.HandshakeContext(ctx); err != nil {
			return &Error{Server: srv.URL(), Stage: StageTLS, Err: err}
		}
		conn = net.Conn(tc)
		tp = textproto.NewConn(conn)
	}

	if login != "" {
		if _, err := pop3Cmd(tp, "USER %s", login); err != nil {
			return &Error{Server: srv.URL(), Stage: StageAuth, Err: err}
		}
		if _, err := pop3Cmd(tp, "PASS %s", password); err != nil {
			return &Error{Server: srv.URL(), Stage: StageAuth, Err: fmt.Errorf("login %s: %w", login, err)}
		}
	}
	_, _ = pop3Cmd(tp, "QUIT")
	return nil
}

func pop3Cmd(tp *textproto.Conn, format string, args ...any) (string, error) {
	if err := tp.PrintfLine(format, args...); err != nil {
		return "", err
	}
	return pop3Reply(tp)
}

func pop3Reply(tp *textproto.Conn) (string, error) {
	line, err := tp.ReadLine()
	if err != nil {
		return "", err
	}
	if rest, ok := strings.CutPrefix(line, "+OK"); ok {
		return strings.TrimSpace(rest), nil
	}
	return "", fmt.Errorf("pop3: %s", strings.TrimSpace(strings.TrimPrefix(line, "-ERR")))
}
