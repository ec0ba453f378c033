// Package account describes external mail accounts: the mail server a
// user reads from, the transport server mail is sent through, the
// credentials for both and the folders that play standard roles (drafts,
// sent, spam, trash, archive).
//
// Server locations round-trip through URLs:
//
//	cfg, _ := account.ParseServerURL("imaps://mail.example.com")
//	cfg.Port    // 993
//	cfg.URL()   // "imaps://mail.example.com:993"
//
// Attributes mirror the contact field catalog: each has a protocol id and
// JSON name and is read or written through an AttributeSwitcher, which is
// what partial updates are built on (see Apply).
//
// UnifiedMail builds the virtual account that merges the standard folders
// of every account with UnifiedMailEnabled set.
package account
