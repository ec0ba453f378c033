package groupware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rbaliyan/event/v3"
)

// Event names for groupware events.
const (
	EventNameContactCreated = "groupware.contact.created"
	EventNameContactUpdated = "groupware.contact.updated"
	EventNameContactDeleted = "groupware.contact.deleted"
	EventNameAccountCreated = "groupware.account.created"
	EventNameAccountUpdated = "groupware.account.updated"
	EventNameAccountDeleted = "groupware.account.deleted"
)

// ContactCreatedEvent is published when a contact is created or imported.
type ContactCreatedEvent struct {
	UserID    string    `json:"user_id"`
	FolderID  string    `json:"folder_id"`
	ContactID string    `json:"contact_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactUpdatedEvent is published when a contact is changed, including
// when another contact is merged into it.
type ContactUpdatedEvent struct {
	UserID    string `json:"user_id"`
	FolderID  string `json:"folder_id"`
	ContactID string `json:"contact_id"`
	// Fields lists the JSON names of the changed fields.
	Fields    []string  `json:"fields,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactDeletedEvent is published when a contact is deleted.
type ContactDeletedEvent struct {
	UserID    string    `json:"user_id"`
	FolderID  string    `json:"folder_id"`
	ContactID string    `json:"contact_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// AccountCreatedEvent is published when a mail account is added.
type AccountCreatedEvent struct {
	UserID         string    `json:"user_id"`
	AccountID      int       `json:"account_id"`
	PrimaryAddress string    `json:"primary_address"`
	CreatedAt      time.Time `json:"created_at"`
}

// AccountUpdatedEvent is published when a mail account changes.
type AccountUpdatedEvent struct {
	UserID    string `json:"user_id"`
	AccountID int    `json:"account_id"`
	// Attributes lists the JSON names of the written attributes.
	Attributes []string  `json:"attributes,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AccountDeletedEvent is published when a mail account is removed.
type AccountDeletedEvent struct {
	UserID    string    `json:"user_id"`
	AccountID int       `json:"account_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// ServiceEvents provides access to per-service event instances.
// Each service creates its own events bound to its own event bus,
// enabling independent event routing and parallel testing.
//
// Subscribe to events:
//
//	svc.Events().ContactCreated.Subscribe(ctx, handler)
//	svc.Events().AccountUpdated.Subscribe(ctx, handler)
type ServiceEvents struct {
	ContactCreated event.Event[ContactCreatedEvent]
	ContactUpdated event.Event[ContactUpdatedEvent]
	ContactDeleted event.Event[ContactDeletedEvent]
	AccountCreated event.Event[AccountCreatedEvent]
	AccountUpdated event.Event[AccountUpdatedEvent]
	AccountDeleted event.Event[AccountDeletedEvent]
}

// newServiceEvents creates per-service event instances with a unique name prefix.
func newServiceEvents(namePrefix string) *ServiceEvents {
	return &ServiceEvents{
		ContactCreated: event.New[ContactCreatedEvent](namePrefix + "." + EventNameContactCreated),
		ContactUpdated: event.New[ContactUpdatedEvent](namePrefix + "." + EventNameContactUpdated),
		ContactDeleted: event.New[ContactDeletedEvent](namePrefix + "." + EventNameContactDeleted),
		AccountCreated: event.New[AccountCreatedEvent](namePrefix + "." + EventNameAccountCreated),
		AccountUpdated: event.New[AccountUpdatedEvent](namePrefix + "." + EventNameAccountUpdated),
		AccountDeleted: event.New[AccountDeletedEvent](namePrefix + "." + EventNameAccountDeleted),
	}
}

// registerServiceEvents registers per-service events with the given bus.
func registerServiceEvents(ctx context.Context, bus *event.Bus, events *ServiceEvents) error {
	if err := event.Register(ctx, bus, events.ContactCreated); err != nil {
		return fmt.Errorf("register ContactCreated: %w", err)
	}
	if err := event.Register(ctx, bus, events.ContactUpdated); err != nil {
		return fmt.Errorf("register ContactUpdated: %w", err)
	}
	if err := event.Register(ctx, bus, events.ContactDeleted); err != nil {
		return fmt.Errorf("register ContactDeleted: %w", err)
	}
	if err := event.Register(ctx, bus, events.AccountCreated); err != nil {
		return fmt.Errorf("register AccountCreated: %w", err)
	}
	if err := event.Register(ctx, bus, events.AccountUpdated); err != nil {
		return fmt.Errorf("register AccountUpdated: %w", err)
	}
	if err := event.Register(ctx, bus, events.AccountDeleted); err != nil {
		return fmt.Errorf("register AccountDeleted: %w", err)
	}
	return nil
}

// publish sends payload on ev. A failure is returned as an
// *EventPublishError when event errors are fatal and handed to the failure
// callback otherwise.
func publish[T any](ctx context.Context, s *service, ev event.Event[T], name, objectID string, payload T) error {
	if err := ev.Publish(ctx, payload); err != nil {
		if s.opts.eventErrorsFatal {
			return &EventPublishError{Event: name, ObjectID: objectID, Err: err}
		}
		s.opts.safeEventPublishFailure(name, err)
	}
	return nil
}

func accountObjectID(userID string, id int) string {
	return userID + "/" + strconv.Itoa(id)
}
