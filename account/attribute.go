package account

import (
	"fmt"
	"strconv"
	"strings"
)

// Attribute identifies one settable property of an Account. The numeric
// value is the stable protocol id.
type Attribute int

// Account attributes.
const (
	AttrID                 Attribute = 1001
	AttrLogin              Attribute = 1002
	AttrPassword           Attribute = 1003
	AttrMailURL            Attribute = 1004
	AttrTransportURL       Attribute = 1005
	AttrName               Attribute = 1006
	AttrPrimaryAddress     Attribute = 1007
	AttrSpamHandler        Attribute = 1008
	AttrTrash              Attribute = 1009
	AttrSent               Attribute = 1010
	AttrDrafts             Attribute = 1011
	AttrSpam               Attribute = 1012
	AttrConfirmedSpam      Attribute = 1013
	AttrConfirmedHam       Attribute = 1014
	AttrMailServer         Attribute = 1015
	AttrMailPort           Attribute = 1016
	AttrMailProtocol       Attribute = 1017
	AttrMailSecure         Attribute = 1018
	AttrTransportServer    Attribute = 1019
	AttrTransportPort      Attribute = 1020
	AttrTransportProtocol  Attribute = 1021
	AttrTransportSecure    Attribute = 1022
	AttrTransportLogin     Attribute = 1023
	AttrTransportPassword  Attribute = 1024
	AttrUnifiedMailEnabled Attribute = 1025
	AttrTrashFullName      Attribute = 1026
	AttrSentFullName       Attribute = 1027
	AttrDraftsFullName     Attribute = 1028
	AttrSpamFullName       Attribute = 1029
	AttrConfirmedSpamFull  Attribute = 1030
	AttrConfirmedHamFull   Attribute = 1031
	AttrPersonal           Attribute = 1033
	AttrReplyTo            Attribute = 1034
	AttrArchive            Attribute = 1037
	AttrArchiveFullName    Attribute = 1038
	AttrTransportAuth      Attribute = 1039
	AttrMailStartTLS       Attribute = 1040
	AttrTransportStartTLS  Attribute = 1041
)

type attrDef struct {
	attr     Attribute
	name     string
	jsonName string
	get      func(a *Account) any
	set      func(a *Account, v any) error
}

func strAttr(attr Attribute, name, jsonName string, ref func(a *Account) *string) attrDef {
	return attrDef{attr, name, jsonName,
		func(a *Account) any { return *ref(a) },
		func(a *Account, v any) error {
			s, ok := v.(string)
			if !ok {
				return ErrWrongType
			}
			*ref(a) = s
			return nil
		}}
}

func intAttr(attr Attribute, name, jsonName string, ref func(a *Account) *int) attrDef {
	return attrDef{attr, name, jsonName,
		func(a *Account) any { return *ref(a) },
		func(a *Account, v any) error {
			switch x := v.(type) {
			case int:
				*ref(a) = x
			case string:
				n, err := strconv.Atoi(strings.TrimSpace(x))
				if err != nil {
					return fmt.Errorf("%w: %q", ErrWrongType, x)
				}
				*ref(a) = n
			default:
				return ErrWrongType
			}
			return nil
		}}
}

func boolAttr(attr Attribute, name, jsonName string, ref func(a *Account) *bool) attrDef {
	return attrDef{attr, name, jsonName,
		func(a *Account) any { return *ref(a) },
		func(a *Account, v any) error {
			switch x := v.(type) {
			case bool:
				*ref(a) = x
			case string:
				b, err := strconv.ParseBool(strings.TrimSpace(x))
				if err != nil {
					return fmt.Errorf("%w: %q", ErrWrongType, x)
				}
				*ref(a) = b
			default:
				return ErrWrongType
			}
			return nil
		}}
}

func protoAttr(attr Attribute, name, jsonName string, ref func(a *Account) *ServerConfig) attrDef {
	return attrDef{attr, name, jsonName,
		func(a *Account) any { return ref(a).Protocol },
		func(a *Account, v any) error {
			var s string
			switch x := v.(type) {
			case Protocol:
				s = string(x)
			case string:
				s = x
			default:
				return ErrWrongType
			}
			if s == "" {
				ref(a).Protocol = ""
				return nil
			}
			p, secure, err := ParseProtocol(s)
			if err != nil {
				return err
			}
			ref(a).Protocol = p
			if secure {
				ref(a).Secure = true
			}
			return nil
		}}
}

func urlAttr(attr Attribute, name, jsonName string, ref func(a *Account) *ServerConfig) attrDef {
	return attrDef{attr, name, jsonName,
		func(a *Account) any { return ref(a).URL() },
		func(a *Account, v any) error {
			s, ok := v.(string)
			if !ok {
				return ErrWrongType
			}
			cfg := ref(a)
			if s == "" {
				cfg.Server, cfg.Port, cfg.Secure = "", 0, false
				return nil
			}
			parsed, err := ParseServerURL(s)
			if err != nil {
				return err
			}
			cfg.Protocol, cfg.Server, cfg.Port, cfg.Secure = parsed.Protocol, parsed.Server, parsed.Port, parsed.Secure
			return nil
		}}
}

func folderAttr(attr Attribute, name, jsonName string, full bool, k FolderKind) attrDef {
	names := func(a *Account) *FolderNames {
		if full {
			return &a.Folders.FullNames
		}
		return &a.Folders.Names
	}
	return attrDef{attr, name, jsonName,
		func(a *Account) any { return names(a).Get(k) },
		func(a *Account, v any) error {
			s, ok := v.(string)
			if !ok {
				return ErrWrongType
			}
			names(a).Set(k, s)
			return nil
		}}
}

func transportAuthAttr(attr Attribute, name, jsonName string) attrDef {
	return attrDef{attr, name, jsonName,
		func(a *Account) any { return a.TransportAuth },
		func(a *Account, v any) error {
			var s string
			switch x := v.(type) {
			case TransportAuth:
				s = string(x)
			case string:
				s = x
			default:
				return ErrWrongType
			}
			ta, err := ParseTransportAuth(s)
			if err != nil {
				return err
			}
			a.TransportAuth = ta
			return nil
		}}
}

func mailCfg(a *Account) *ServerConfig      { return &a.Mail }
func transportCfg(a *Account) *ServerConfig { return &a.Transport }

var attrTable = []attrDef{
	intAttr(AttrID, "ID", "id", func(a *Account) *int { return &a.ID }),
	strAttr(AttrLogin, "Login", "login", func(a *Account) *string { return &a.Mail.Login }),
	strAttr(AttrPassword, "Password", "password", func(a *Account) *string { return &a.Mail.Password }),
	urlAttr(AttrMailURL, "MailURL", "mail_url", mailCfg),
	urlAttr(AttrTransportURL, "TransportURL", "transport_url", transportCfg),
	strAttr(AttrName, "Name", "name", func(a *Account) *string { return &a.Name }),
	strAttr(AttrPrimaryAddress, "PrimaryAddress", "primary_address", func(a *Account) *string { return &a.PrimaryAddress }),
	strAttr(AttrSpamHandler, "SpamHandler", "spam_handler", func(a *Account) *string { return &a.SpamHandler }),
	folderAttr(AttrTrash, "Trash", "trash", false, FolderTrash),
	folderAttr(AttrSent, "Sent", "sent", false, FolderSent),
	folderAttr(AttrDrafts, "Drafts", "drafts", false, FolderDrafts),
	folderAttr(AttrSpam, "Spam", "spam", false, FolderSpam),
	folderAttr(AttrConfirmedSpam, "ConfirmedSpam", "confirmed_spam", false, FolderConfirmedSpam),
	folderAttr(AttrConfirmedHam, "ConfirmedHam", "confirmed_ham", false, FolderConfirmedHam),
	strAttr(AttrMailServer, "MailServer", "mail_server", func(a *Account) *string { return &a.Mail.Server }),
	intAttr(AttrMailPort, "MailPort", "mail_port", func(a *Account) *int { return &a.Mail.Port }),
	protoAttr(AttrMailProtocol, "MailProtocol", "mail_protocol", mailCfg),
	boolAttr(AttrMailSecure, "MailSecure", "mail_secure", func(a *Account) *bool { return &a.Mail.Secure }),
	strAttr(AttrTransportServer, "TransportServer", "transport_server", func(a *Account) *string { return &a.Transport.Server }),
	intAttr(AttrTransportPort, "TransportPort", "transport_port", func(a *Account) *int { return &a.Transport.Port }),
	protoAttr(AttrTransportProtocol, "TransportProtocol", "transport_protocol", transportCfg),
	boolAttr(AttrTransportSecure, "TransportSecure", "transport_secure", func(a *Account) *bool { return &a.Transport.Secure }),
	strAttr(AttrTransportLogin, "TransportLogin", "transport_login", func(a *Account) *string { return &a.Transport.Login }),
	strAttr(AttrTransportPassword, "TransportPassword", "transport_password", func(a *Account) *string { return &a.Transport.Password }),
	boolAttr(AttrUnifiedMailEnabled, "UnifiedMailEnabled", "unified_mail_enabled", func(a *Account) *bool { return &a.UnifiedMailEnabled }),
	folderAttr(AttrTrashFullName, "TrashFullName", "trash_fullname", true, FolderTrash),
	folderAttr(AttrSentFullName, "SentFullName", "sent_fullname", true, FolderSent),
	folderAttr(AttrDraftsFullName, "DraftsFullName", "drafts_fullname", true, FolderDrafts),
	folderAttr(AttrSpamFullName, "SpamFullName", "spam_fullname", true, FolderSpam),
	folderAttr(AttrConfirmedSpamFull, "ConfirmedSpamFullName", "confirmed_spam_fullname", true, FolderConfirmedSpam),
	folderAttr(AttrConfirmedHamFull, "ConfirmedHamFullName", "confirmed_ham_fullname", true, FolderConfirmedHam),
	strAttr(AttrPersonal, "Personal", "personal", func(a *Account) *string { return &a.Personal }),
	strAttr(AttrReplyTo, "ReplyTo", "reply_to", func(a *Account) *string { return &a.ReplyTo }),
	folderAttr(AttrArchive, "Archive", "archive", false, FolderArchive),
	folderAttr(AttrArchiveFullName, "ArchiveFullName", "archive_fullname", true, FolderArchive),
	transportAuthAttr(AttrTransportAuth, "TransportAuth", "transport_auth"),
	boolAttr(AttrMailStartTLS, "MailStartTLS", "mail_starttls", func(a *Account) *bool { return &a.Mail.StartTLS }),
	boolAttr(AttrTransportStartTLS, "TransportStartTLS", "transport_starttls", func(a *Account) *bool { return &a.Transport.StartTLS }),
}

var (
	attrCatalog = map[Attribute]*attrDef{}
	attrByJSON  = map[string]Attribute{}
)

func init() {
	for i := range attrTable {
		d := &attrTable[i]
		if _, dup := attrCatalog[d.attr]; dup {
			panic(fmt.Sprintf("account: duplicate attribute %d", d.attr))
		}
		attrCatalog[d.attr] = d
		attrByJSON[d.jsonName] = d.attr
	}
}

// Attributes returns every attribute in table order.
func Attributes() []Attribute {
	out := make([]Attribute, len(attrTable))
	for i := range attrTable {
		out[i] = attrTable[i].attr
	}
	return out
}

// ParseAttribute resolves a numeric id or JSON name.
func ParseAttribute(s string) (Attribute, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.Atoi(s); err == nil {
		if _, ok := attrCatalog[Attribute(id)]; ok {
			return Attribute(id), nil
		}
	}
	if a, ok := attrByJSON[s]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAttribute, s)
}

// Valid reports whether a is part of the catalog.
func (a Attribute) Valid() bool {
	_, ok := attrCatalog[a]
	return ok
}

// JSONName returns the wire name.
func (a Attribute) JSONName() string {
	if d, ok := attrCatalog[a]; ok {
		return d.jsonName
	}
	return ""
}

func (a Attribute) String() string {
	if d, ok := attrCatalog[a]; ok {
		return d.name
	}
	return "Attribute(" + strconv.Itoa(int(a)) + ")"
}

// IsSecret reports whether the attribute holds a password.
func (a Attribute) IsSecret() bool {
	return a == AttrPassword || a == AttrTransportPassword
}

// AttributeSwitcher performs one operation on any account attribute.
type AttributeSwitcher interface {
	Switch(attr Attribute, acc *Account, value any) (any, error)
}

// AttributeGetter returns the attribute value. Server URLs are generated.
type AttributeGetter struct{}

// AttributeSetter assigns the attribute value. Strings are accepted for
// numeric and boolean attributes; URL attributes are parsed.
type AttributeSetter struct{}

// Switch implements AttributeSwitcher.
func (AttributeGetter) Switch(attr Attribute, acc *Account, _ any) (any, error) {
	d, ok := attrCatalog[attr]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAttribute, int(attr))
	}
	return d.get(acc), nil
}

// Switch implements AttributeSwitcher.
func (AttributeSetter) Switch(attr Attribute, acc *Account, value any) (any, error) {
	d, ok := attrCatalog[attr]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAttribute, int(attr))
	}
	if err := d.set(acc, value); err != nil {
		return nil, fmt.Errorf("account: set %s: %w", d.jsonName, err)
	}
	return nil, nil
}

// Switch dispatches to the switcher's operation for this attribute.
func (a Attribute) Switch(sw AttributeSwitcher, acc *Account, value any) (any, error) {
	if acc == nil {
		return nil, fmt.Errorf("account: switch %s on nil account", a)
	}
	return sw.Switch(a, acc, value)
}

// Apply copies the listed attributes from src to dst.
func Apply(dst, src *Account, attrs []Attribute) error {
	for _, attr := range attrs {
		v, err := attr.Switch(AttributeGetter{}, src, nil)
		if err != nil {
			return err
		}
		if _, err := attr.Switch(AttributeSetter{}, dst, v); err != nil {
			return err
		}
	}
	return nil
}
