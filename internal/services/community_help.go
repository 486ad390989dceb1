package services

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/crisiscare/crisiscare-backend/internal/apperrors"
	"github.com/crisiscare/crisiscare-backend/internal/logger"
	"github.com/crisiscare/crisiscare-backend/internal/metrics"
	"github.com/crisiscare/crisiscare-backend/internal/models"
	"github.com/crisiscare/crisiscare-backend/internal/store"
)

const sideChannelTimeout = 5 * time.Second

// Publisher announces newly stored entries.
type Publisher interface {
	Publish(ctx context.Context, entry models.Entry) error
}

// CommunityHelpService validates signups and records them in the entry store
// and its side channels.
type CommunityHelpService struct {
	store    *store.EntryStore
	archives []Archiver
	feed     Publisher
	metrics  *metrics.Metrics
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*CommunityHelpService)

func WithArchives(archives ...Archiver) Option {
	return func(s *CommunityHelpService) { s.archives = append(s.archives, archives...) }
}

func WithFeed(p Publisher) Option {
	return func(s *CommunityHelpService) { s.feed = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *CommunityHelpService) { s.metrics = m }
}

// WithClock overrides time.Now; used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *CommunityHelpService) { s.now = now }
}

func NewCommunityHelpService(st *store.EntryStore, opts ...Option) *CommunityHelpService {
	s := &CommunityHelpService{
		store:    st,
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks that role, name and email are present.
func (s *CommunityHelpService) Validate(req models.CommunityHelpRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperrors.Validation(apperrors.MsgMissingFields, err)
	}
	return nil
}

// Submit validates req and appends a new entry. Once the primary store has
// been written the submission has succeeded; text log, archive and live
// feed failures are only logged.
func (s *CommunityHelpService) Submit(ctx context.Context, req models.CommunityHelpRequest) (models.Entry, error) {
	log := logger.GetLogger()

	if err := s.Validate(req); err != nil {
		s.countSubmission(metrics.OutcomeRejected)
		return models.Entry{}, err
	}

	entry, err := s.store.Append(func(lastID int64) models.Entry {
		now := s.now()
		return models.NewEntry(max(now.UnixMilli(), lastID+1), req, now)
	})
	if err != nil {
		s.countSubmission(metrics.OutcomeFailed)
		log.Errorw("Failed to persist community help entry", "error", err)
		return models.Entry{}, apperrors.Persistence(err)
	}
	s.countSubmission(metrics.OutcomeAccepted)
	log.Infow("Community help entry stored", "id", entry.ID, "role", entry.Role, "email", logger.MaskEmail(entry.Email))

	if err := s.store.AppendHumanReadable(entry); err != nil {
		s.countSideChannelFailure("text_log")
		log.Errorw("Failed to append human-readable entry", "id", entry.ID, "path", s.store.TextPath(), "error", err)
	}

	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideChannelTimeout)
	defer cancel()

	for _, a := range s.archives {
		if err := a.Archive(sideCtx, entry); err != nil {
			s.countSideChannelFailure(a.Name())
			log.Errorw("Failed to archive entry", "archive", a.Name(), "id", entry.ID, "error", err)
		}
	}

	if s.feed != nil {
		if err := s.feed.Publish(sideCtx, entry); err != nil {
			s.countSideChannelFailure("live_feed")
			log.Warnw("Failed to publish entry to live feed", "id", entry.ID, "error", err)
		}
	}

	return entry, nil
}

// List returns every stored entry in submission order.
func (s *CommunityHelpService) List() []models.Entry {
	return s.store.Load()
}

func (s *CommunityHelpService) countSubmission(outcome string) {
	if s.metrics != nil {
		s.metrics.Submissions.WithLabelValues(outcome).Inc()
	}
}

func (s *CommunityHelpService) countSideChannelFailure(channel string) {
	if s.metrics != nil {
		s.metrics.SideChannelFailures.WithLabelValues(channel).Inc()
	}
}
