package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"banknote-review-service/internal/apperr"
	"banknote-review-service/internal/logger"
	"banknote-review-service/internal/model"
	"banknote-review-service/internal/repository"
)

// maxSubmitAttempts bounds the optimistic retry loop in SubmitReview.
const maxSubmitAttempts = 5

// AggregateStore persists review aggregates with versioned writes.
type AggregateStore interface {
	Find(ctx context.Context, key string) (*model.ReviewAggregate, error)
	Insert(ctx context.Context, agg *model.ReviewAggregate) error
	Replace(ctx context.Context, agg *model.ReviewAggregate, expectedVersion int64) error
}

// SubmitReviewInput is a validated review submission.
type SubmitReviewInput struct {
	Bill    model.BanknoteIdentity
	Kind    model.Kind
	Comment string
	Date    time.Time // zero means now
	Rating  float64
	Defects []string
}

// ReviewService runs submissions against the aggregate store and formats
// lookups.
type ReviewService struct {
	store AggregateStore
	log   *logger.Logger
	now   func() time.Time
}

func NewReviewService(store AggregateStore, log *logger.Logger) *ReviewService {
	return &ReviewService{
		store: store,
		log:   log.With("service", "ReviewService"),
		now:   time.Now,
	}
}

// SubmitReview merges the caller's review into the banknote's aggregate. The
// read-merge-write cycle is retried when another writer got there first.
func (s *ReviewService) SubmitReview(ctx context.Context, session model.Session, in SubmitReviewInput) error {
	if !session.IsLoggedIn() {
		return apperr.Unauthorized("Unauthorized")
	}
	if session.Location == "" {
		return apperr.Validation("Location required")
	}
	category, ok := model.CategoryForAccount(session.User.TypeOfAccount)
	if !ok {
		return apperr.Internal(fmt.Sprintf("Invalid type of account: %s", session.User.TypeOfAccount))
	}

	bill := in.Bill.Normalized()
	key := bill.Key()
	date := in.Date
	if date.IsZero() {
		date = s.now().UTC()
	}
	incoming := model.IncomingReview{
		ReviewEntry: model.ReviewEntry{
			Date:     date,
			Comment:  in.Comment,
			Location: session.Location,
			UserID:   session.User.ID,
		},
		Rating:  in.Rating,
		Defects: in.Defects,
	}

	for attempt := 1; attempt <= maxSubmitAttempts; attempt++ {
		current, err := s.store.Find(ctx, key)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("ReviewService.SubmitReview: load %s: %w", key, err)
		}

		next, err := SubmitReview(current, bill, category, in.Kind, incoming)
		if err != nil {
			return err
		}

		if current == nil {
			next.Version = 1
			err = s.store.Insert(ctx, next)
		} else {
			next.Version = current.Version + 1
			err = s.store.Replace(ctx, next, current.Version)
		}
		if errors.Is(err, repository.ErrConflict) {
			s.log.Debug("aggregate changed during submission, retrying", "key", key, "attempt", attempt)
			continue
		}
		if err != nil {
			return fmt.Errorf("ReviewService.SubmitReview: save %s: %w", key, err)
		}

		s.log.Info("review accepted",
			"key", key,
			"user_id", session.User.ID,
			"category", category.String(),
			"kind", in.Kind.String(),
		)
		return nil
	}

	s.log.Warn("giving up on contended aggregate", "key", key, "attempts", maxSubmitAttempts)
	return apperr.Conflict("Review was updated concurrently, please retry")
}

// GetReview returns the formatted view for bill and whether any review exists.
func (s *ReviewService) GetReview(ctx context.Context, bill model.BanknoteIdentity, authenticated bool) (interface{}, bool, error) {
	bill = bill.Normalized()
	agg, err := s.store.Find(ctx, bill.Key())
	if errors.Is(err, repository.ErrNotFound) {
		return FormatReview(nil, bill, authenticated), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ReviewService.GetReview: %w", err)
	}
	return FormatReview(agg, bill, authenticated), true, nil
}
