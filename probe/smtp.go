package probe

import (
	"context"
	"fmt"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/rbaliyan/groupware/account"
)

func (p *Prober) smtp(ctx context.Context, srv account.ServerConfig, login, password string) error {
	conn, err := p.connect(ctx, srv)
	if err != nil {
		return err
	}

	var c *smtp.Client
	if srv.StartTLS && !srv.Secure {
		// The session starts over after STARTTLS, so Hello below still
		// sends the configured name.
		c, err = smtp.NewClientStartTLS(conn, p.tlsConfig(srv))
		if err != nil {
			return &Error{Server: srv.URL(), Stage: StageTLS, Err: err}
		}
	} else {
		c = smtp.NewClient(conn)
	}
	defer c.Close()

	if err := c.Hello(p.opts.localName); err != nil {
		// The upgraded connection handshakes on its first write.
		if state, ok := c.TLSConnectionState(); ok && !state.HandshakeComplete {
			return &Error{Server: srv.URL(), Stage: StageTLS, Err: err}
		}
		return &Error{Server: srv.URL(), Stage: StageGreeting, Err: err}
	}
	if login == "" {
		_ = c.Quit()
		return nil
	}

	var auth sasl.Client
	switch {
	case c.SupportsAuth(sasl.Plain):
		auth = sasl.NewPlainClient("", login, password)
	case c.SupportsAuth(sasl.Login):
		auth = sasl.NewLoginClient(login, password)
	default:
		return &Error{Server: srv.URL(), Stage: StageAuth, Err: fmt.Errorf("no supported AUTH mechanism")}
	}
	if err := c.Auth(auth); err != nil {
		return &Error{Server: srv.URL(), Stage: StageAuth, Err: fmt.Errorf("login %s: %w", login, err)}
	}
	_ = c.Quit()
	return nil
}
