package groupware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/rbaliyan/event/v3"
	"github.com/rbaliyan/event/v3/transport/noop"
	eventredis "github.com/rbaliyan/event/v3/transport/redis"
	"golang.org/x/sync/semaphore"

	"github.com/rbaliyan/groupware/probe"
	"github.com/rbaliyan/groupware/store"
)

// Type aliases for commonly used store types.
// These allow users to work with the groupware package without importing store directly.
type (
	ListOptions  = store.ListOptions
	ContactQuery = store.ContactQuery
	ContactList  = store.ContactList
	SortOrder    = store.SortOrder
)

// Re-exported sort order constants.
const (
	SortAsc  = store.SortAsc
	SortDesc = store.SortDesc
)

// ServiceHealth provides health and state information about the service.
type ServiceHealth interface {
	// IsConnected returns true if the service is connected and ready.
	IsConnected() bool
}

// Service manages address books and mail accounts (server-side).
// It handles connections to storage and creates per-user clients.
type Service interface {
	ServiceHealth

	// Connect establishes connections to storage backends.
	Connect(ctx context.Context) error
	// Close waits for in-flight writes and closes all connections.
	Close(ctx context.Context) error
	// AddressBook returns the contact client for the given user.
	// The returned client shares the service's connections.
	AddressBook(userID string) AddressBook
	// MailAccounts returns the mail account client for the given user.
	MailAccounts(userID string) MailAccounts
	// LookupAddress finds the user and account whose primary address is
	// address, ignoring case.
	LookupAddress(ctx context.Context, address string) (userID string, accountID int, err error)
	// Events returns per-service event instances for subscribing and publishing.
	Events() *ServiceEvents
}

// Connection states for the service.
const (
	stateDisconnected int32 = 0
	stateConnecting   int32 = 1
	stateConnected    int32 = 2
)

// service is the default implementation of Service.
type service struct {
	contacts store.ContactStore
	accounts store.AccountStore
	images   store.ImageFileStore
	prober   *probe.Prober
	logger   *slog.Logger
	opts     *options
	state    int32 // stateDisconnected, stateConnecting, or stateConnected
	plugins  *pluginRegistry
	otel     *otelInstrumentation
	writeSem *semaphore.Weighted // Limits concurrent writes and lets Close drain them
	eventBus *event.Bus
	events   *ServiceEvents
}

// NewService creates a new groupware service.
// Call Connect() to establish connections to backends.
//
// A single backend may serve as both the contact and the account store.
// Account caching is not built in; wrap the account store with
// store/cached to serve reads from Redis.
func NewService(opts ...Option) (Service, error) {
	o := newOptions(opts...)

	if o.contacts == nil || o.accounts == nil {
		return nil, ErrStoreRequired
	}

	plugins := newPluginRegistry(o.logger)
	for _, p := range o.plugins {
		plugins.register(p)
	}

	otelInstr, err := newOtelInstrumentation(o)
	if err != nil {
		return nil, fmt.Errorf("init otel: %w", err)
	}

	prober := o.prober
	if prober == nil {
		prober = probe.New(probe.WithLogger(o.logger))
	}

	return &service{
		contacts: o.contacts,
		accounts: o.accounts,
		images:   o.images,
		prober:   prober,
		logger:   o.logger,
		opts:     o,
		plugins:  plugins,
		otel:     otelInstr,
		writeSem: semaphore.NewWeighted(int64(o.maxConcurrentWrites)),
	}, nil
}

// Events returns per-service event instances for subscribing and publishing.
func (s *service) Events() *ServiceEvents {
	return s.events
}

// IsConnected returns true if the service is connected and ready.
func (s *service) IsConnected() bool {
	return atomic.LoadInt32(&s.state) == stateConnected
}

// Connect establishes connections to storage backends.
func (s *service) Connect(ctx context.Context) error {
	// stateDisconnected -> stateConnecting -> stateConnected keeps clients
	// from seeing a partially initialized service.
	if !atomic.CompareAndSwapInt32(&s.state, stateDisconnected, stateConnecting) {
		return ErrAlreadyConnected
	}

	success := false
	defer func() {
		if success {
			atomic.StoreInt32(&s.state, stateConnected)
		} else {
			atomic.StoreInt32(&s.state, stateDisconnected)
		}
	}()

	if err := s.contacts.Connect(ctx); err != nil {
		return fmt.Errorf("connect contact store: %w", err)
	}
	// A shared backend reports the second Connect as already connected.
	if err := s.accounts.Connect(ctx); err != nil && !errors.Is(err, store.ErrAlreadyConnected) {
		s.contacts.Close(ctx)
		return fmt.Errorf("connect account store: %w", err)
	}

	if err := s.initEventBus(ctx); err != nil {
		s.closeStores(ctx)
		return fmt.Errorf("init event bus: %w", err)
	}

	if err := s.plugins.initAll(ctx); err != nil {
		s.eventBus.Close(ctx)
		s.closeStores(ctx)
		return fmt.Errorf("init plugins: %w", err)
	}

	success = true
	s.logger.Info("groupware service connected",
		"image_store", s.images != nil,
		"plugins", len(s.plugins.all))
	return nil
}

// busCounter generates unique suffixes for event bus names.
var busCounter int64

func (s *service) serviceName() string {
	if s.opts.serviceName != "" {
		return s.opts.serviceName
	}
	return "groupware"
}

// initEventBus initializes the event bus for this service.
// Each service creates its own bus with its own events.
func (s *service) initEventBus(ctx context.Context) error {
	busName := fmt.Sprintf("%s-%d", s.serviceName(), atomic.AddInt64(&busCounter, 1))

	var bus *event.Bus
	var err error

	switch {
	case s.opts.eventTransport != nil:
		s.logger.Info("initializing event bus with custom transport")
		bus, err = event.NewBus(busName, event.WithTransport(s.opts.eventTransport))
	case s.opts.redisClient != nil:
		s.logger.Info("initializing event bus with Redis transport")
		t, transportErr := eventredis.New(s.opts.redisClient)
		if transportErr != nil {
			return fmt.Errorf("create redis transport: %w", transportErr)
		}
		bus, err = event.NewBus(busName, event.WithTransport(t))
	default:
		s.logger.Debug("initializing event bus with noop transport")
		bus, err = event.NewBus(busName, event.WithTransport(noop.New()))
	}

	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	s.eventBus = bus

	s.events = newServiceEvents(busName)
	if err := registerServiceEvents(ctx, bus, s.events); err != nil {
		bus.Close(ctx)
		return fmt.Errorf("register service events: %w", err)
	}
	return nil
}

// Close closes connections to storage backends.
func (s *service) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.state, stateConnected, stateDisconnected) {
		return nil
	}

	var errs []error

	// No new writes start once the state is disconnected. Acquiring every
	// slot waits for the running ones.
	s.logger.Info("waiting for in-flight operations to complete...", "timeout", s.opts.shutdownTimeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, s.opts.shutdownTimeout)
	defer shutdownCancel()
	if err := s.writeSem.Acquire(shutdownCtx, int64(s.opts.maxConcurrentWrites)); err != nil {
		s.logger.Warn("timeout waiting for in-flight operations, proceeding with shutdown",
			"error", err)
		errs = append(errs, fmt.Errorf("graceful shutdown timeout: %w", err))
	} else {
		s.writeSem.Release(int64(s.opts.maxConcurrentWrites))
		s.logger.Info("all in-flight operations completed")
	}

	if err := s.plugins.closeAll(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close plugins: %w", err))
	}

	if s.eventBus != nil {
		if err := s.eventBus.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}

	errs = append(errs, s.closeStores(ctx))
	return errors.Join(errs...)
}

func (s *service) closeStores(ctx context.Context) error {
	var errs []error
	if err := s.accounts.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close account store: %w", err))
	}
	if err := s.contacts.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close contact store: %w", err))
	}
	return errors.Join(errs...)
}

// AddressBook returns the contact client for the given user.
func (s *service) AddressBook(userID string) AddressBook {
	return &addressBook{
		userID:      userID,
		service:     s,
		validUserID: isValidUserID(userID),
	}
}

// MailAccounts returns the mail account client for the given user.
func (s *service) MailAccounts(userID string) MailAccounts {
	return &mailAccounts{
		userID:      userID,
		service:     s,
		validUserID: isValidUserID(userID),
	}
}

// LookupAddress finds the account whose primary address is address.
func (s *service) LookupAddress(ctx context.Context, address string) (userID string, accountID int, err error) {
	ctx, done := s.otel.trackAccount(ctx, opAccountLookup, "")
	defer func() { done(err) }()

	if !s.IsConnected() {
		return "", 0, ErrNotConnected
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return "", 0, ErrNotFound
	}
	userID, accountID, err = s.accounts.ResolvePrimaryAddress(ctx, address)
	if err != nil {
		return "", 0, storeError("resolve primary address", err)
	}
	return userID, accountID, nil
}

// beginWrite reserves a write slot. The returned function releases it.
func (s *service) beginWrite(ctx context.Context) (func(), error) {
	if err := s.writeSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	// Close may have started while waiting for the slot.
	if !s.IsConnected() {
		s.writeSem.Release(1)
		return nil, ErrNotConnected
	}
	return func() { s.writeSem.Release(1) }, nil
}
