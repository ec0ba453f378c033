package probe

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"io"
	"math/big"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/rbaliyan/groupware/account"
	"github.com/rbaliyan/groupware/retry"
)

const (
	goodLogin    = "ann"
	goodPassword = "secret"
)

func newProber() *Prober {
	return New(WithTimeout(5*time.Second), WithRetry(retry.Policy{Attempts: 1}))
}

// serve runs handle for each connection accepted on a local listener.
func serve(t *testing.T, handle func(tp *textproto.Conn)) account.ServerConfig {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				handle(textproto.NewConn(conn))
			}()
		}
	}()
	return serverConfig(t, l.Addr())
}

func serverConfig(t *testing.T, addr net.Addr) account.ServerConfig {
	t.Helper()
	host, port, _ := net.SplitHostPort(addr.String())
	p, err := strconv.Atoi(port)
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return account.ServerConfig{Server: host, Port: p}
}

func fakeIMAP(tp *textproto.Conn) {
	tp.PrintfLine("* OK [CAPABILITY IMAP4rev1 AUTH=PLAIN] ready")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return
		}
		tag, cmd := fields[0], strings.ToUpper(fields[1])
		switch cmd {
		case "LOGIN":
			if strings.Contains(line, goodLogin) && strings.Contains(line, goodPassword) {
				tp.PrintfLine("%s OK LOGIN completed", tag)
			} else {
				tp.PrintfLine("%s NO [AUTHENTICATIONFAILED] invalid credentials", tag)
			}
		case "CAPABILITY":
			tp.PrintfLine("* CAPABILITY IMAP4rev1 AUTH=PLAIN")
			tp.PrintfLine("%s OK CAPABILITY completed", tag)
		case "LOGOUT":
			tp.PrintfLine("* BYE logging out")
			tp.PrintfLine("%s OK LOGOUT completed", tag)
			return
		default:
			tp.PrintfLine("%s BAD unknown command", tag)
		}
	}
}

func fakePOP3(tp *textproto.Conn) {
	tp.PrintfLine("+OK POP3 ready")
	var user string
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd, arg, _ := strings.Cut(line, " ")
		switch strings.ToUpper(cmd) {
		case "USER":
			user = arg
			tp.PrintfLine("+OK")
		case "PASS":
			if user == goodLogin && arg == goodPassword {
				tp.PrintfLine("+OK maildrop ready")
			} else {
				tp.PrintfLine("-ERR invalid credentials")
			}
		case "QUIT":
			tp.PrintfLine("+OK bye")
			return
		default:
			tp.PrintfLine("-ERR unknown command")
		}
	}
}

type smtpBackend struct{}

func (smtpBackend) NewSession(*smtp.Conn) (smtp.Session, error) { return &smtpSession{}, nil }

type smtpSession struct{}

func (*smtpSession) AuthMechanisms() []string { return []string{sasl.Plain} }

func (*smtpSession) Auth(string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if username == goodLogin && password == goodPassword {
			return nil
		}
		return errors.New("invalid credentials")
	}), nil
}

func (*smtpSession) Mail(string, *smtp.MailOptions) error { return nil }
func (*smtpSession) Rcpt(string, *smtp.RcptOptions) error { return nil }
func (*smtpSession) Data(io.Reader) error                 { return nil }
func (*smtpSession) Reset()                               {}
func (*smtpSession) Logout() error                        { return nil }

func serveSMTP(t *testing.T) account.ServerConfig {
	t.Helper()
	return serveSMTPWith(t, func(srv *smtp.Server) { srv.AllowInsecureAuth = true })
}

func serveSMTPWith(t *testing.T, configure func(*smtp.Server)) account.ServerConfig {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := smtp.NewServer(smtpBackend{})
	srv.Domain = "localhost"
	configure(srv)
	go srv.Serve(l)
	t.Cleanup(func() { srv.Close() })
	return serverConfig(t, l.Addr())
}

// selfSigned returns a server certificate for 127.0.0.1 and a pool that
// trusts it.
func selfSigned(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "127.0.0.1"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, pool
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	imapSrv := serve(t, fakeIMAP)
	imapSrv.Protocol = account.ProtocolIMAP
	popSrv := serve(t, fakePOP3)
	popSrv.Protocol = account.ProtocolPOP3
	smtpSrv := serveSMTP(t)
	smtpSrv.Protocol = account.ProtocolSMTP

	for _, srv := range []account.ServerConfig{imapSrv, popSrv, smtpSrv} {
		t.Run(string(srv.Protocol), func(t *testing.T) {
			p := newProber()
			if err := p.Check(ctx, srv, goodLogin, goodPassword); err != nil {
				t.Errorf("good credentials: %v", err)
			}
			err := p.Check(ctx, srv, goodLogin, "wrong")
			if !errors.Is(err, ErrAuth) {
				t.Errorf("bad credentials: expected ErrAuth, got %v", err)
			}
			if err := p.Check(ctx, srv, "", ""); err != nil {
				t.Errorf("anonymous connect: %v", err)
			}
		})
	}
}

func TestCheckErrors(t *testing.T) {
	ctx := context.Background()
	p := newProber()

	err := p.Check(ctx, account.ServerConfig{Protocol: account.ProtocolUnifiedMail, Server: "x"}, "", "")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := serverConfig(t, l.Addr())
	srv.Protocol = account.ProtocolIMAP
	l.Close()

	err = p.Check(ctx, srv, goodLogin, goodPassword)
	var pe *Error
	if !errors.As(err, &pe) || pe.Stage != StageDial {
		t.Fatalf("expected dial error, got %v", err)
	}
	if !pe.Retryable() {
		t.Error("dial errors should be retryable")
	}
}

func TestAccount(t *testing.T) {
	ctx := context.Background()
	mail := serve(t, fakeIMAP)
	mail.Protocol = account.ProtocolIMAP
	mail.Login = goodLogin
	transport := serveSMTP(t)
	transport.Protocol = account.ProtocolSMTP

	acc := &account.Account{UserID: "u1", Mail: mail, Transport: transport}
	r := newProber().Account(ctx, acc, goodPassword, goodPassword)
	if !r.OK() {
		t.Fatalf("report not ok: %v", r.Err())
	}
	if r.Transport == nil {
		t.Fatal("transport not checked")
	}
	if r.Mail.URL == "" {
		t.Error("mail URL missing")
	}

	r = newProber().Account(ctx, acc, goodPassword, "wrong")
	if r.OK() || !errors.Is(r.Err(), ErrAuth) {
		t.Errorf("expected transport auth failure, got %v", r.Err())
	}

	acc.Transport = account.ServerConfig{}
	r = newProber().Account(ctx, acc, goodPassword, "")
	if r.Transport != nil || !r.OK() {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestCheckSMTPStartTLS(t *testing.T) {
	ctx := context.Background()
	cert, pool := selfSigned(t)

	// Auth is only offered once the session is encrypted.
	srv := serveSMTPWith(t, func(srv *smtp.Server) {
		srv.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	})
	srv.Protocol = account.ProtocolSMTP
	srv.StartTLS = true

	p := New(
		WithTimeout(5*time.Second),
		WithRetry(retry.Policy{Attempts: 1}),
		WithTLSConfig(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}),
	)

	t.Run("good credentials", func(t *testing.T) {
		if err := p.Check(ctx, srv, goodLogin, goodPassword); err != nil {
			t.Errorf("expected success over STARTTLS, got %v", err)
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		if err := p.Check(ctx, srv, goodLogin, "wrong"); !errors.Is(err, ErrAuth) {
			t.Errorf("expected ErrAuth, got %v", err)
		}
	})

	t.Run("plain session has no auth", func(t *testing.T) {
		plain := srv
		plain.StartTLS = false
		err := p.Check(ctx, plain, goodLogin, goodPassword)
		var pe *Error
		if !errors.As(err, &pe) || pe.Stage != StageAuth {
			t.Errorf("expected auth stage error without TLS, got %v", err)
		}
	})

	t.Run("untrusted certificate", func(t *testing.T) {
		strict := New(WithTimeout(5*time.Second), WithRetry(retry.Policy{Attempts: 1}))
		err := strict.Check(ctx, srv, goodLogin, goodPassword)
		var pe *Error
		if !errors.As(err, &pe) || pe.Stage != StageTLS {
			t.Errorf("expected TLS stage error, got %v", err)
		}
	})

	t.Run("server without STARTTLS", func(t *testing.T) {
		bare := serveSMTP(t)
		bare.Protocol = account.ProtocolSMTP
		bare.StartTLS = true
		err := p.Check(ctx, bare, goodLogin, goodPassword)
		var pe *Error
		if !errors.As(err, &pe) || pe.Stage != StageTLS {
			t.Errorf("expected TLS stage error, got %v", err)
		}
	})
}
