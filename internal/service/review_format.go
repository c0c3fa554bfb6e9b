package service

import (
	"time"

	"banknote-review-service/internal/model"
)

type GoodReviewView struct {
	Date     time.Time `json:"date"`
	Comment  string    `json:"comment"`
	Location string    `json:"location"`
	UserID   string    `json:"userId"`
	Rating   float64   `json:"rating"`
}

type BadReviewView struct {
	Date     time.Time `json:"date"`
	Comment  string    `json:"comment"`
	Location string    `json:"location"`
	UserID   string    `json:"userId"`
	Defects  []string  `json:"defects"`
}

type ReviewListView struct {
	GoodReviews []GoodReviewView `json:"goodReviews"`
	BadReviews  []BadReviewView  `json:"badReviews"`
}

// BasicReviewView is what anonymous callers see: counts and the average only.
type BasicReviewView struct {
	BillInfo    model.BanknoteIdentity `json:"billInfo"`
	GoodReviews int                    `json:"goodReviews"`
	BadReviews  int                    `json:"badReviews"`
	AvgRating   float64                `json:"avgRating"`
}

// MissingReviewView is the anonymous shape for a banknote nobody reviewed.
type MissingReviewView struct {
	BasicReviewView
	Defects []string `json:"defects"`
}

type FullReviewView struct {
	BasicReviewView
	Defects         []string       `json:"defects"`
	UserReviews     ReviewListView `json:"userReviews"`
	BusinessReviews ReviewListView `json:"businessReviews"`
}

// FormatReview projects agg for a caller. Anonymous callers get counts and the
// average; authenticated callers also get defects and every review.
func FormatReview(agg *model.ReviewAggregate, bill model.BanknoteIdentity, authenticated bool) interface{} {
	if agg == nil {
		basic := BasicReviewView{BillInfo: bill}
		if !authenticated {
			return MissingReviewView{BasicReviewView: basic}
		}
		return FullReviewView{
			BasicReviewView: basic,
			UserReviews:     projectBucket(model.ReviewBucket{}),
			BusinessReviews: projectBucket(model.ReviewBucket{}),
		}
	}

	basic := BasicReviewView{
		BillInfo:    agg.BillInfo,
		GoodReviews: agg.GoodCount(),
		BadReviews:  agg.BadCount(),
		AvgRating:   agg.AvgRating,
	}
	if !authenticated {
		return basic
	}
	return FullReviewView{
		BasicReviewView: basic,
		Defects:         agg.Defects,
		UserReviews:     projectBucket(agg.UserReviews),
		BusinessReviews: projectBucket(agg.BusinessReviews),
	}
}

func projectBucket(b model.ReviewBucket) ReviewListView {
	out := ReviewListView{
		GoodReviews: make([]GoodReviewView, 0, len(b.GoodReviews)),
		BadReviews:  make([]BadReviewView, 0, len(b.BadReviews)),
	}
	for _, r := range b.GoodReviews {
		out.GoodReviews = append(out.GoodReviews, GoodReviewView{
			Date:     r.Date,
			Comment:  r.Comment,
			Location: r.Location,
			UserID:   r.UserID,
			Rating:   r.Rating,
		})
	}
	for _, r := range b.BadReviews {
		out.BadReviews = append(out.BadReviews, BadReviewView{
			Date:     r.Date,
			Comment:  r.Comment,
			Location: r.Location,
			UserID:   r.UserID,
			Defects:  r.Defects,
		})
	}
	return out
}
