// Package groupware provides per-user address books and mail account
// descriptions on top of pluggable storage.
//
// Contacts carry a fixed catalog of fields (see package contact) that can
// be read, written, compared and merged generically. Mail accounts describe
// where a user's mail is read from and sent through, with their passwords
// encrypted at rest (see packages account and secret).
//
// # Basic Usage
//
//	// Create in-memory store for testing
//	st := memory.New()
//
//	svc, err := groupware.NewService(
//	    groupware.WithContactStore(st),
//	    groupware.WithAccountStore(st),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Connect initializes indexes/schema
//	if err := svc.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close(ctx)
//
//	book := svc.AddressBook("user123")
//	c, err := book.Create(ctx, &contact.Contact{
//	    FolderID:  "contacts",
//	    GivenName: "Ada",
//	    SurName:   "Lovelace",
//	    Email1:    "ada@example.com",
//	})
//
// # Address Book Operations
//
//   - Get/List/Search/Stream: Read contacts, paged or streamed
//   - Create/Update/Delete/BulkDelete: Write contacts
//   - FindSimilar/Merge: Detect and fold duplicates
//   - Autocomplete/RecordUse: Recipient completion ordered by use
//   - ExportVCard/ImportVCard: vCard exchange
//   - SetImage/LoadImage: Contact pictures, inline or in an image store
//
// # Mail Accounts
//
//   - List/Get/Default: Read account descriptions (passwords redacted)
//   - Create/Update/Delete: Write accounts; the default account stays
//   - Credentials: Decrypted logins
//   - Probe/Check: Connect and authenticate against the servers
//   - UnifiedMail: The virtual account aggregating opted-in accounts
//
// # Storage Backends
//
// The store package provides implementations for:
//   - MongoDB (store/mongo) - accepts *mongo.Client
//   - PostgreSQL (store/postgres) - accepts *sql.DB
//   - SQLite (store/sqlite) - accepts *sql.DB
//   - In-memory (store/memory) - for testing
//
// Contact images can live in S3 (store/image/s3) or Google Cloud Storage
// (store/image/gcs), optionally behind a local disk cache
// (store/image/cached). store/cached serves account reads from Redis.
//
// # Events
//
// Writes publish typed events through github.com/rbaliyan/event/v3.
// Without a transport the events go nowhere; pass WithRedisClient or
// WithEventTransport to deliver them:
//
//	svc, err := groupware.NewService(
//	    groupware.WithContactStore(st),
//	    groupware.WithAccountStore(st),
//	    groupware.WithRedisClient(redisClient),
//	)
//
// Events are registered during Connect(). Access per-service events via
// the Events() method:
//
//	events := svc.Events()
//	events.ContactCreated.Subscribe(ctx, handler)
//	events.AccountDeleted.Subscribe(ctx, handler)
//
// Available events:
//   - ContactCreated, ContactUpdated, ContactDeleted
//   - AccountCreated, AccountUpdated, AccountDeleted
package groupware
