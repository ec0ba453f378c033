package account

import (
	"fmt"
	"strings"
)

// Protocol is a mail access or transport protocol.
type Protocol string

// Supported protocols.
const (
	ProtocolIMAP        Protocol = "imap"
	ProtocolPOP3        Protocol = "pop3"
	ProtocolSMTP        Protocol = "smtp"
	ProtocolUnifiedMail Protocol = "unifiedmail"
)

// Well-known ports.
const (
	PortIMAP       = 143
	PortIMAPS      = 993
	PortPOP3       = 110
	PortPOP3S      = 995
	PortSMTP       = 25
	PortSMTPS      = 465
	PortSubmission = 587
)

// ParseProtocol parses a protocol name or URL scheme. A trailing "s" on a
// scheme ("imaps", "smtps") selects implicit TLS.
func ParseProtocol(s string) (p Protocol, secure bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "imap":
		return ProtocolIMAP, false, nil
	case "imaps":
		return ProtocolIMAP, true, nil
	case "pop3", "pop":
		return ProtocolPOP3, false, nil
	case "pop3s", "pops":
		return ProtocolPOP3, true, nil
	case "smtp", "submission":
		return ProtocolSMTP, false, nil
	case "smtps":
		return ProtocolSMTP, true, nil
	case "unifiedmail":
		return ProtocolUnifiedMail, false, nil
	}
	return "", false, fmt.Errorf("%w: %q", ErrUnknownProtocol, s)
}

// Valid reports whether p is a known protocol.
func (p Protocol) Valid() bool {
	switch p {
	case ProtocolIMAP, ProtocolPOP3, ProtocolSMTP, ProtocolUnifiedMail:
		return true
	}
	return false
}

// IsTransport reports whether p sends mail.
func (p Protocol) IsTransport() bool { return p == ProtocolSMTP }

// Scheme returns the URL scheme for p.
func (p Protocol) Scheme(secure bool) string {
	if secure && p != ProtocolUnifiedMail {
		return string(p) + "s"
	}
	return string(p)
}

// DefaultPort returns the standard port for p. Unknown protocols return 0.
func (p Protocol) DefaultPort(secure bool) int {
	switch p {
	case ProtocolIMAP:
		if secure {
			return PortIMAPS
		}
		return PortIMAP
	case ProtocolPOP3:
		if secure {
			return PortPOP3S
		}
		return PortPOP3
	case ProtocolSMTP:
		if secure {
			return PortSMTPS
		}
		return PortSMTP
	}
	return 0
}

// TransportAuth selects the credentials used for the transport server.
type TransportAuth string

const (
	// TransportAuthMail reuses the mail server login and password.
	TransportAuthMail TransportAuth = "mail"
	// TransportAuthCustom uses the transport server's own credentials.
	TransportAuthCustom TransportAuth = "custom"
	// TransportAuthNone sends without authentication.
	TransportAuthNone TransportAuth = "none"
)

// ParseTransportAuth parses a transport auth mode. The empty string is
// TransportAuthMail.
func ParseTransportAuth(s string) (TransportAuth, error) {
	switch TransportAuth(strings.ToLower(strings.TrimSpace(s))) {
	case "", TransportAuthMail:
		return TransportAuthMail, nil
	case TransportAuthCustom:
		return TransportAuthCustom, nil
	case TransportAuthNone:
		return TransportAuthNone, nil
	}
	return "", &ValidationError{Field: "transport_auth", Reason: fmt.Sprintf("unknown mode %q", s)}
}
