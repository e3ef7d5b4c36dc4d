package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spring2life/telehealth-portal/internal/profiles"
	"github.com/spring2life/telehealth-portal/pkg/logging"
)

// FeedSink persists notifications to the in-app feed and, when an email
// sender is configured, mirrors them to the recipient's inbox. The feed
// write is the delivery of record; an email failure is logged and swallowed.
type FeedSink struct {
	repo     Repository
	profiles profiles.Repository
	email    EmailSender
	logger   *logging.Logger
	subject  string
}

// NewFeedSink constructs the sink. email may be nil to disable mirroring.
func NewFeedSink(repo Repository, profileRepo profiles.Repository, email EmailSender, logger *logging.Logger) *FeedSink {
	if repo == nil {
		panic("notify: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FeedSink{
		repo:     repo,
		profiles: profileRepo,
		email:    email,
		logger:   logger,
		subject:  "Appointment update",
	}
}

// Notify appends one feed entry for the recipient.
func (s *FeedSink) Notify(ctx context.Context, userID, message string, meta map[string]string) error {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   message,
		Meta:      meta,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("notify: persist feed entry: %w", err)
	}
	s.mirrorToEmail(ctx, userID, message)
	return nil
}

func (s *FeedSink) mirrorToEmail(ctx context.Context, userID, message string) {
	if s.email == nil || s.profiles == nil {
		return
	}
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil || profile.Email == "" {
		return
	}
	if err := s.email.Send(ctx, EmailMessage{
		To:      profile.Email,
		ToName:  profile.FullName,
		Subject: s.subject,
		Body:    message,
	}); err != nil {
		s.logger.Error("email mirror failed", "user_id", userID, "error", err)
	}
}
