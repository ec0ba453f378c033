package account

import (
	"errors"
	"testing"
)

func TestServerConfigURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServerConfig
		want string
	}{
		{"imaps default port", ServerConfig{Protocol: ProtocolIMAP, Server: "mail.example.com", Secure: true}, "imaps://mail.example.com:993"},
		{"imap explicit port", ServerConfig{Protocol: ProtocolIMAP, Server: "mail.example.com", Port: 1143}, "imap://mail.example.com:1143"},
		{"pop3", ServerConfig{Protocol: ProtocolPOP3, Server: "pop.example.com"}, "pop3://pop.example.com:110"},
		{"smtps", ServerConfig{Protocol: ProtocolSMTP, Server: "smtp.example.com", Secure: true}, "smtps://smtp.example.com:465"},
		{"submission", ServerConfig{Protocol: ProtocolSMTP, Server: "smtp.example.com", StartTLS: true}, "smtp://smtp.example.com:587"},
		{"ipv6", ServerConfig{Protocol: ProtocolIMAP, Server: "::1", Secure: true}, "imaps://[::1]:993"},
		{"bracketed ipv6", ServerConfig{Protocol: ProtocolIMAP, Server: "[2001:db8::1]"}, "imap://[2001:db8::1]:143"},
		{"no server", ServerConfig{Protocol: ProtocolIMAP}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.URL(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseServerURL(t *testing.T) {
	tests := []struct {
		in      string
		want    ServerConfig
		wantErr error
	}{
		{in: "imaps://mail.example.com", want: ServerConfig{Protocol: ProtocolIMAP, Server: "mail.example.com", Port: 993, Secure: true}},
		{in: "imap://mail.example.com:1143", want: ServerConfig{Protocol: ProtocolIMAP, Server: "mail.example.com", Port: 1143}},
		{in: "mail.example.com", want: ServerConfig{Protocol: ProtocolIMAP, Server: "mail.example.com", Port: 143}},
		{in: "smtps://[::1]:2465", want: ServerConfig{Protocol: ProtocolSMTP, Server: "::1", Port: 2465, Secure: true}},
		{in: "pop3s://user@pop.example.com", want: ServerConfig{Protocol: ProtocolPOP3, Server: "pop.example.com", Port: 995, Secure: true, Login: "user"}},
		{in: "ftp://example.com", wantErr: ErrUnknownProtocol},
		{in: "imap://example.com:0", wantErr: ErrInvalidPort},
		{in: "imap://example.com:70000", wantErr: ErrInvalidPort},
		{in: "imap://example.com:abc", wantErr: ErrInvalidPort},
		{in: "smtp://user@example.com:25x/path", wantErr: ErrInvalidPort},
		{in: "smtps://[::1]:tls", wantErr: ErrInvalidPort},
		{in: "example.com:-1", wantErr: ErrInvalidPort},
		{in: "imap://", wantErr: ErrInvalidURL},
		{in: "", wantErr: ErrInvalidURL},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseServerURL(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Protocol != tt.want.Protocol || got.Server != tt.want.Server || got.Port != tt.want.Port ||
				got.Secure != tt.want.Secure || got.Login != tt.want.Login {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestServerURLRoundTrip(t *testing.T) {
	for _, raw := range []string{"imaps://mail.example.com:993", "smtp://[::1]:25", "pop3://pop.example.com:110"} {
		cfg, err := ParseServerURL(raw)
		if err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
		if got := cfg.URL(); got != raw {
			t.Errorf("expected %q, got %q", raw, got)
		}
	}
}

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   ServerConfig
		field string
	}{
		{"valid", ServerConfig{Protocol: ProtocolIMAP, Server: "mail.example.com"}, ""},
		{"unknown protocol", ServerConfig{Protocol: "x", Server: "h"}, "mail_protocol"},
		{"wrong protocol", ServerConfig{Protocol: ProtocolSMTP, Server: "h"}, "mail_protocol"},
		{"missing server", ServerConfig{Protocol: ProtocolIMAP}, "mail_server"},
		{"bad host", ServerConfig{Protocol: ProtocolIMAP, Server: "a b"}, "mail_server"},
		{"bad port", ServerConfig{Protocol: ProtocolIMAP, Server: "h", Port: 70000}, "mail_port"},
		{"tls and starttls", ServerConfig{Protocol: ProtocolIMAP, Server: "h", Secure: true, StartTLS: true}, "mail_starttls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate("mail", ProtocolIMAP, ProtocolPOP3)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, ve.Field)
			}
			if !errors.Is(err, ErrInvalidAccount) {
				t.Error("expected ErrInvalidAccount in chain")
			}
		})
	}
}

func TestParseProtocol(t *testing.T) {
	p, secure, err := ParseProtocol("IMAPS")
	if err != nil || p != ProtocolIMAP || !secure {
		t.Errorf("got %v %v %v", p, secure, err)
	}
	if _, _, err := ParseProtocol("gopher"); !errors.Is(err, ErrUnknownProtocol) {
		t.Errorf("expected ErrUnknownProtocol, got %v", err)
	}
	if ProtocolUnifiedMail.DefaultPort(true) != 0 {
		t.Error("unified mail has no port")
	}
}
