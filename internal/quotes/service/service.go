package service

import (
	"context"
	"errors"
	"time"

	"b2b_marketplace_backend/internal/events"
	"b2b_marketplace_backend/internal/quotes/domain"
	"b2b_marketplace_backend/internal/quotes/ports"
	"b2b_marketplace_backend/internal/quotes/repository"
	"b2b_marketplace_backend/platform/apperr"
	"b2b_marketplace_backend/platform/config"
	"b2b_marketplace_backend/platform/lock"
	"b2b_marketplace_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	msgVersionMismatch = "quote was modified by another request"
	msgQuoteBusy       = "quote is being converted to an order; retry shortly"
	quoteLockPrefix    = "quote:"
	writeLockTTL       = 5 * time.Second
)

// Actor is the authenticated party performing an operation.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// Settings holds the tunables the service reads from configuration.
type Settings struct {
	DefaultValidityDays  int
	DefaultExtensionDays int
	ConversionTimeout    time.Duration
	ConversionLockTTL    time.Duration
	ReminderLead         time.Duration
}

// SettingsFromConfig reads Settings from the quote configuration.
func SettingsFromConfig(cfg config.QuoteConfig) Settings {
	return Settings{
		DefaultValidityDays:  cfg.GetQuoteDefaultValidityDays(),
		DefaultExtensionDays: cfg.GetQuoteDefaultExtensionDays(),
		ConversionTimeout:    cfg.GetConversionTimeout(),
		ConversionLockTTL:    cfg.GetConversionLockTTL(),
		ReminderLead:         cfg.GetQuoteReminderLead(),
	}
}

func (s Settings) withDefaults() Settings {
	if s.DefaultValidityDays <= 0 {
		s.DefaultValidityDays = domain.DefaultValidityDays
	}
	if s.DefaultExtensionDays <= 0 {
		s.DefaultExtensionDays = domain.DefaultExtensionDays
	}
	if s.ConversionTimeout <= 0 {
		s.ConversionTimeout = 10 * time.Second
	}
	if s.ConversionLockTTL < s.ConversionTimeout {
		s.ConversionLockTTL = 3 * s.ConversionTimeout
	}
	if s.ReminderLead <= 0 {
		s.ReminderLead = 24 * time.Hour
	}
	return s
}

// Service provides business logic for quote negotiation and conversion.
type Service struct {
	repo      repository.Store
	orders    ports.OrderCreator
	eventBus  events.Bus
	log       *logger.Logger
	settings  Settings
	locker    lock.Locker
	directory ports.PartyDirectory            // optional
	reminders ports.ValidityReminderScheduler // optional
	storage   ports.AttachmentPresigner       // optional
	now       func() time.Time
}

// New creates a new quotes service. Conversion uses an in-process lock until
// SetConversionLocker provides a shared one.
func New(repo repository.Store, orders ports.OrderCreator, eventBus events.Bus, log *logger.Logger, settings Settings) *Service {
	return &Service{
		repo:     repo,
		orders:   orders,
		eventBus: eventBus,
		log:      log,
		settings: settings.withDefaults(),
		locker:   lock.NewLocalLocker(),
		now:      time.Now,
	}
}

// SetPartyDirectory injects the buyer/supplier lookup used at creation.
func (s *Service) SetPartyDirectory(d ports.PartyDirectory) {
	s.directory = d
}

// SetConversionLocker replaces the in-process per-quote write lock.
func (s *Service) SetConversionLocker(l lock.Locker) {
	if l != nil {
		s.locker = l
	}
}

// SetReminderScheduler enables validity reminders.
func (s *Service) SetReminderScheduler(r ports.ValidityReminderScheduler) {
	s.reminders = r
}

// SetAttachmentPresigner enables attachment uploads.
func (s *Service) SetAttachmentPresigner(p ports.AttachmentPresigner) {
	s.storage = p
}

// mutation runs one state change against a freshly loaded quote.
type mutation func(q *domain.Quote, now time.Time) error

// lockQuote takes the per-quote write lock. Convert holds it across the
// order call; every other write holds it for one load-apply-save.
func (s *Service) lockQuote(ctx context.Context, quoteNumber string, ttl time.Duration, busyMsg string) (lock.Release, error) {
	release, err := s.locker.TryLock(ctx, quoteLockPrefix+quoteNumber, ttl)
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, apperr.Conflict(busyMsg)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to acquire quote lock", err)
	}
	return release, nil
}

// mutate loads the quote, applies fn and saves it under the write lock.
// Authorization and state guards inside fn are evaluated before the
// If-Match check so callers learn why they cannot act before learning that
// their copy is stale.
func (s *Service) mutate(ctx context.Context, quoteNumber string, ifMatch int64, fn mutation) (*domain.Quote, error) {
	release, err := s.lockQuote(ctx, quoteNumber, writeLockTTL, msgQuoteBusy)
	if err != nil {
		return nil, err
	}
	defer release()

	q, err := s.repo.GetByNumber(ctx, quoteNumber)
	if err != nil {
		return nil, err
	}

	before := *q
	now := s.now()
	if err := fn(q, now); err != nil {
		return nil, err
	}
	if err := checkVersion(q, ifMatch); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, q); err != nil {
		return nil, err
	}

	s.scheduleReminder(ctx, &before, q)
	return q, nil
}

// checkVersion enforces an If-Match precondition. Zero means none was sent.
func checkVersion(q *domain.Quote, ifMatch int64) error {
	if ifMatch != 0 && q.Version != ifMatch {
		return apperr.Conflict(msgVersionMismatch).WithDetails(map[string]int64{
			"expected": ifMatch,
			"current":  q.Version,
		})
	}
	return nil
}

// loadForParticipant returns the quote if actor is its buyer or supplier.
func (s *Service) loadForParticipant(ctx context.Context, actor Actor, quoteNumber string) (*domain.Quote, domain.SenderType, error) {
	q, err := s.repo.GetByNumber(ctx, quoteNumber)
	if err != nil {
		return nil, "", err
	}
	role, err := q.ParticipantRole(actor.ID)
	if err != nil {
		return nil, "", err
	}
	return q, role, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, event)
}

func refOf(q *domain.Quote, actorID uuid.UUID) events.QuoteRef {
	return events.QuoteRef{
		QuoteNumber: q.QuoteNumber,
		BuyerID:     q.BuyerID,
		SupplierID:  q.SupplierID,
		Status:      string(q.Status),
		ActorID:     actorID,
	}
}
