// Package probe checks that the servers of a mail account are reachable
// and accept its credentials. It connects, authenticates and logs out; no
// mail is read or sent.
package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/retry"
)

// Stage names the step of a check that failed.
type Stage string

// Check stages.
const (
	StageDial     Stage = "dial"
	StageTLS      Stage = "tls"
	StageGreeting Stage = "greeting"
	StageAuth     Stage = "auth"
)

var (
	// ErrUnsupported is returned for protocols that cannot be probed.
	ErrUnsupported = errors.New("probe: unsupported protocol")

	// ErrAuth is matched by errors for rejected credentials.
	ErrAuth = errors.New("probe: authentication failed")
)

// Error reports a failed check.
type Error struct {
	Server string
	Stage  Stage
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("probe %s: %s: %v", e.Server, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches ErrAuth for authentication failures.
func (e *Error) Is(target error) bool {
	return target == ErrAuth && e.Stage == StageAuth
}

// Retryable reports whether trying again may succeed.
func (e *Error) Retryable() bool {
	return e.Stage == StageDial || e.Stage == StageGreeting
}

// Result is the outcome of checking one server.
type Result struct {
	URL     string        `json:"url"`
	Latency time.Duration `json:"latency"`
	Err     error         `json:"-"`
}

// OK reports whether the check succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Report is the outcome of checking an account. Transport is nil when the
// account has no transport server.
type Report struct {
	Mail      Result  `json:"mail"`
	Transport *Result `json:"transport,omitempty"`
}

// OK reports whether every checked server succeeded.
func (r *Report) OK() bool {
	return r.Mail.OK() && (r.Transport == nil || r.Transport.OK())
}

// Err returns the first failure.
func (r *Report) Err() error {
	if r.Mail.Err != nil {
		return r.Mail.Err
	}
	if r.Transport != nil {
		return r.Transport.Err
	}
	return nil
}

// Prober checks servers. Safe for concurrent use.
type Prober struct {
	opts   *options
	logger *slog.Logger
}

// New creates a Prober.
func New(opts ...Option) *Prober {
	o := newOptions(opts...)
	return &Prober{opts: o, logger: o.logger}
}

// Check connects to srv and authenticates with login and password. An
// empty login skips authentication.
func (p *Prober) Check(ctx context.Context, srv account.ServerConfig, login, password string) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.timeout)
	defer cancel()

	var check func(context.Context, account.ServerConfig, string, string) error
	switch srv.Protocol {
	case account.ProtocolIMAP:
		check = p.imap
	case account.ProtocolSMTP:
		check = p.smtp
	case account.ProtocolPOP3:
		check = p.pop3
	default:
		return fmt.Errorf("%w: %q", ErrUnsupported, srv.Protocol)
	}

	return retry.Do(ctx, p.opts.policy, func(ctx context.Context) error {
		err := check(ctx, srv, login, password)
		if err != nil {
			p.logger.Debug("probe failed", "server", srv.URL(), "error", err)
		}
		return err
	})
}

// Account checks the mail server and, if configured, the transport server
// of acc. Passwords are given in plain text.
func (p *Prober) Account(ctx context.Context, acc *account.Account, mailPassword, transportPassword string) *Report {
	r := &Report{Mail: p.result(ctx, acc.Mail, acc.Mail.Login, mailPassword)}
	if acc.HasTransport() {
		login, _ := acc.TransportCredentials()
		res := p.result(ctx, acc.Transport, login, transportPassword)
		r.Transport = &res
	}
	p.logger.Info("probed account", "user", acc.UserID, "account", acc.ID, "ok", r.OK())
	return r
}

func (p *Prober) result(ctx context.Context, srv account.ServerConfig, login, password string) Result {
	start := time.Now()
	err := p.Check(ctx, srv, login, password)
	return Result{URL: srv.URL(), Latency: time.Since(start), Err: err}
}

// connect dials srv and wraps the connection in TLS for implicit-TLS
// servers. The connection deadline follows ctx.
func (p *Prober) connect(ctx context.Context, srv account.ServerConfig) (net.Conn, error) {
	conn, err := p.opts.dial(ctx, "tcp", srv.Addr())
	if err != nil {
		return nil, &Error{Server: srv.URL(), Stage: StageDial, Err: err}
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	if !srv.Secure {
		return conn, nil
	}
	tc := tls.Client(conn, p.tlsConfig(srv))
	if err := tc.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, &Error{Server: srv.URL(), Stage: StageTLS, Err: err}
	}
	return tc, nil
}

func (p *Prober) tlsConfig(srv account.ServerConfig) *tls.Config {
	var cfg *tls.Config
	if p.opts.tlsConfig != nil {
		cfg = p.opts.tlsConfig.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.ServerName == "" {
		host, _, err := net.SplitHostPort(srv.Addr())
		if err == nil {
			cfg.ServerName = host
		}
	}
	return cfg
}
