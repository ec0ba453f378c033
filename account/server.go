package account

import (
	"fmt"
	"maps"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ServerConfig describes how to reach a mail or transport server.
type ServerConfig struct {
	Protocol Protocol `json:"protocol"`
	Server   string   `json:"server"`
	// Port 0 means the protocol default.
	Port int `json:"port,omitempty"`
	// Secure selects implicit TLS.
	Secure   bool   `json:"secure"`
	StartTLS bool   `json:"starttls"`
	Login    string `json:"login,omitempty"`
	// Password is kept encrypted at rest; see the secret package.
	Password   string            `json:"password,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// EffectivePort returns Port, or the default port for the protocol and TLS
// mode. Plain SMTP with STARTTLS defaults to the submission port.
func (s ServerConfig) EffectivePort() int {
	if s.Port > 0 {
		return s.Port
	}
	if s.Protocol == ProtocolSMTP && s.StartTLS && !s.Secure {
		return PortSubmission
	}
	return s.Protocol.DefaultPort(s.Secure)
}

// Addr returns "host:port" suitable for net.Dial.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.host(), strconv.Itoa(s.EffectivePort()))
}

// URL returns the server URL, e.g. "imaps://mail.example.com:993". IPv6
// literals are bracketed. An empty server yields "".
func (s ServerConfig) URL() string {
	if s.Server == "" {
		return ""
	}
	u := url.URL{Scheme: s.Protocol.Scheme(s.Secure), Host: s.Addr()}
	return u.String()
}

// host strips brackets from an IPv6 literal.
func (s ServerConfig) host() string {
	return strings.TrimSuffix(strings.TrimPrefix(s.Server, "["), "]")
}

// ParseServerURL parses a server URL such as "imaps://host:993" or
// "smtp://[::1]". A missing scheme means IMAP and a missing port the
// protocol default.
func ParseServerURL(raw string) (ServerConfig, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ServerConfig{}, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "imap://" + raw
	}
	if p := rawPort(raw); p != "" && strings.Trim(p, "0123456789") != "" {
		return ServerConfig{}, fmt.Errorf("%w: %q", ErrInvalidPort, p)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	proto, secure, err := ParseProtocol(u.Scheme)
	if err != nil {
		return ServerConfig{}, err
	}
	host := u.Hostname()
	if host == "" {
		return ServerConfig{}, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}
	cfg := ServerConfig{Protocol: proto, Server: host, Secure: secure}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return ServerConfig{}, fmt.Errorf("%w: %q", ErrInvalidPort, p)
		}
		cfg.Port = port
	} else {
		cfg.Port = proto.DefaultPort(secure)
	}
	if u.User != nil {
		cfg.Login = u.User.Username()
	}
	return cfg, nil
}

// rawPort returns the port text of a "scheme://authority/..." URL without
// validating it.
func rawPort(raw string) string {
	_, rest, _ := strings.Cut(raw, "://")
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest = rest[i+1:]
	}
	if i := strings.LastIndex(rest, "]"); i >= 0 {
		rest = rest[i+1:]
	}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		return rest[i+1:]
	}
	return ""
}

// Clone returns a copy with its own Properties map.
func (s ServerConfig) Clone() ServerConfig {
	s.Properties = maps.Clone(s.Properties)
	return s
}

// Validate checks the server description. allowed lists the acceptable
// protocols; none means any known protocol.
func (s ServerConfig) Validate(field string, allowed ...Protocol) error {
	if !s.Protocol.Valid() {
		return &ValidationError{Field: field + "_protocol", Reason: fmt.Sprintf("unknown protocol %q", s.Protocol), Err: ErrUnknownProtocol}
	}
	if len(allowed) > 0 {
		ok := false
		for _, p := range allowed {
			ok = ok || p == s.Protocol
		}
		if !ok {
			return invalid(field+"_protocol", fmt.Sprintf("protocol %q not allowed here", s.Protocol))
		}
	}
	if strings.TrimSpace(s.Server) == "" {
		return invalid(field+"_server", "server is required")
	}
	if strings.ContainsAny(s.Server, " /\\@") {
		return invalid(field+"_server", fmt.Sprintf("bad host %q", s.Server))
	}
	if s.Port < 0 || s.Port > 65535 {
		return &ValidationError{Field: field + "_port", Reason: strconv.Itoa(s.Port), Err: ErrInvalidPort}
	}
	if s.Secure && s.StartTLS {
		return invalid(field+"_starttls", "STARTTLS cannot be combined with implicit TLS")
	}
	return nil
}
