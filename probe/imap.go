package probe

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/rbaliyan/groupware/account"
)

func (p *Prober) imap(ctx context.Context, srv account.ServerConfig, login, password string) error {
	conn, err := p.connect(ctx, srv)
	if err != nil {
		return err
	}

	opts := &imapclient.Options{TLSConfig: p.tlsConfig(srv)}
	var c *imapclient.Client
	if srv.StartTLS && !srv.Secure {
		c, err = imapclient.NewStartTLS(conn, opts)
		if err != nil {
			conn.Close()
			return &Error{Server: srv.URL(), Stage: StageTLS, Err: err}
		}
	} else {
		c = imapclient.New(conn, opts)
	}
	defer c.Close()

	if err := c.WaitGreeting(); err != nil {
		return &Error{Server: srv.URL(), Stage: StageGreeting, Err: err}
	}
	if login == "" {
		return nil
	}
	if err := c.Login(login, password).Wait(); err != nil {
		return &Error{Server: srv.URL(), Stage: StageAuth, Err: fmt.Errorf("login %s: %w", login, err)}
	}
	_ = c.Logout().Wait()
	return nil
}
