package service

import (
	"fmt"

	"banknote-review-service/internal/apperr"
	"banknote-review-service/internal/model"
)

// ErrDuplicateReview rejects a second review by the same user in one bucket.
var ErrDuplicateReview = apperr.Conflict("This user already posted a review of this type")

type bucketSelector func(*model.ReviewAggregate) *model.ReviewBucket

var categoryBuckets = map[model.Category]bucketSelector{
	model.CategoryIndividual: func(a *model.ReviewAggregate) *model.ReviewBucket { return &a.UserReviews },
	model.CategoryBusiness:   func(a *model.ReviewAggregate) *model.ReviewBucket { return &a.BusinessReviews },
}

// A mergeFunc must finish every check before it mutates agg or bucket.
type mergeFunc func(agg *model.ReviewAggregate, bucket *model.ReviewBucket, in model.IncomingReview) error

var kindMerges = map[model.Kind]mergeFunc{
	model.KindGood: mergeGoodReview,
	model.KindBad:  mergeBadReview,
}

// SubmitReview merges in into a copy of agg (or a fresh aggregate for bill when
// agg is nil) and returns the copy. agg itself is never modified.
func SubmitReview(
	agg *model.ReviewAggregate,
	bill model.BanknoteIdentity,
	category model.Category,
	kind model.Kind,
	in model.IncomingReview,
) (*model.ReviewAggregate, error) {
	selectBucket, ok := categoryBuckets[category]
	if !ok {
		return nil, apperr.Internal(fmt.Sprintf("Invalid review category: %s", category))
	}
	merge, ok := kindMerges[kind]
	if !ok {
		return nil, apperr.Validation("Invalid type of review")
	}

	var next *model.ReviewAggregate
	if agg == nil {
		next = model.NewReviewAggregate(bill)
	} else {
		next = agg.Clone()
	}
	if err := merge(next, selectBucket(next), in); err != nil {
		return nil, err
	}
	return next, nil
}

func mergeGoodReview(agg *model.ReviewAggregate, bucket *model.ReviewBucket, in model.IncomingReview) error {
	for _, r := range bucket.GoodReviews {
		if r.UserID == in.UserID {
			return ErrDuplicateReview
		}
	}

	total := agg.GoodCount() + 1
	agg.Ratings += in.Rating
	agg.AvgRating = agg.Ratings / float64(total)
	bucket.GoodReviews = append(bucket.GoodReviews, model.GoodReview{
		ReviewEntry: in.ReviewEntry,
		Rating:      in.Rating,
	})
	return nil
}

func mergeBadReview(agg *model.ReviewAggregate, bucket *model.ReviewBucket, in model.IncomingReview) error {
	for _, r := range bucket.BadReviews {
		if r.UserID == in.UserID {
			return ErrDuplicateReview
		}
	}

	agg.Defects = unionDefects(agg.Defects, in.Defects)
	bucket.BadReviews = append(bucket.BadReviews, model.BadReview{
		ReviewEntry: in.ReviewEntry,
		Defects:     append([]string(nil), in.Defects...),
	})
	return nil
}

// unionDefects appends labels not yet present, keeping first-seen order.
// A nil set stays nil when there is nothing to add.
func unionDefects(set, labels []string) []string {
	seen := make(map[string]struct{}, len(set)+len(labels))
	for _, d := range set {
		seen[d] = struct{}{}
	}
	for _, d := range labels {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		set = append(set, d)
	}
	return set
}
