package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Category is the submitter class a review is filed under.
type Category int

const (
	CategoryIndividual Category = iota + 1
	CategoryBusiness
)

func (c Category) String() string {
	switch c {
	case CategoryIndividual:
		return "individual"
	case CategoryBusiness:
		return "business"
	}
	return "unknown"
}

// Kind is review polarity.
type Kind int

const (
	KindGood Kind = iota + 1
	KindBad
)

// Wire values of typeOfReview.
const (
	GoodReviewLabel = "Good review"
	BadReviewLabel  = "Bad review"
)

func ParseKind(s string) (Kind, bool) {
	switch s {
	case GoodReviewLabel:
		return KindGood, true
	case BadReviewLabel:
		return KindBad, true
	}
	return 0, false
}

func (k Kind) String() string {
	switch k {
	case KindGood:
		return GoodReviewLabel
	case KindBad:
		return BadReviewLabel
	}
	return "unknown"
}

// BillValue is a banknote denomination. Clients send it as a number or a
// string; it is kept in canonical string form.
type BillValue string

func (v *BillValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = BillValue(strings.TrimSpace(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("bill value must be a number or string: %w", err)
	}
	*v = BillValue(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// BanknoteIdentity identifies one physical banknote.
type BanknoteIdentity struct {
	SerialNumber string    `bson:"serialNumber" json:"serialNumber"`
	Value        BillValue `bson:"value" json:"value"`
	Series       string    `bson:"series" json:"series"`
}

// NormalizeSerial removes every whitespace rune from a serial number.
func NormalizeSerial(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Normalized returns a copy with the serial number normalized.
func (b BanknoteIdentity) Normalized() BanknoteIdentity {
	b.SerialNumber = NormalizeSerial(b.SerialNumber)
	b.Series = strings.TrimSpace(b.Series)
	return b
}

// Key is the aggregate primary key: serialNumber-value-series.
func (b BanknoteIdentity) Key() string {
	n := b.Normalized()
	return n.SerialNumber + "-" + string(n.Value) + "-" + n.Series
}

// ReviewEntry holds the fields shared by good and bad reviews.
type ReviewEntry struct {
	Date     time.Time `bson:"date" json:"date"`
	Comment  string    `bson:"comment" json:"comment"`
	Location string    `bson:"location" json:"location"`
	UserID   string    `bson:"userId" json:"userId"`
}

type GoodReview struct {
	ReviewEntry `bson:",inline"`
	Rating      float64 `bson:"rating" json:"rating"`
}

type BadReview struct {
	ReviewEntry `bson:",inline"`
	Defects     []string `bson:"defects" json:"defects"`
}

// ReviewBucket is one submitter category's reviews, split by kind.
type ReviewBucket struct {
	GoodReviews []GoodReview `bson:"goodReviews" json:"goodReviews"`
	BadReviews  []BadReview  `bson:"badReviews" json:"badReviews"`
}

// ReviewAggregate is the single stored document summarising every review of
// one banknote.
type ReviewAggregate struct {
	ID              string           `bson:"_id" json:"-"`
	BillInfo        BanknoteIdentity `bson:"billInfo" json:"billInfo"`
	UserReviews     ReviewBucket     `bson:"userReviews" json:"userReviews"`
	BusinessReviews ReviewBucket     `bson:"businessReviews" json:"businessReviews"`
	Defects         []string         `bson:"defects" json:"defects"`
	Ratings         float64          `bson:"ratings" json:"ratings"`
	AvgRating       float64          `bson:"avgRating" json:"avgRating"`
	Version         int64            `bson:"version" json:"-"`
}

// NewReviewAggregate returns the empty aggregate for bill.
func NewReviewAggregate(bill BanknoteIdentity) *ReviewAggregate {
	bill = bill.Normalized()
	return &ReviewAggregate{
		ID:              bill.Key(),
		BillInfo:        bill,
		UserReviews:     ReviewBucket{GoodReviews: []GoodReview{}, BadReviews: []BadReview{}},
		BusinessReviews: ReviewBucket{GoodReviews: []GoodReview{}, BadReviews: []BadReview{}},
	}
}

// GoodCount sums good reviews over both categories.
func (a *ReviewAggregate) GoodCount() int {
	return len(a.UserReviews.GoodReviews) + len(a.BusinessReviews.GoodReviews)
}

// BadCount sums bad reviews over both categories.
func (a *ReviewAggregate) BadCount() int {
	return len(a.UserReviews.BadReviews) + len(a.BusinessReviews.BadReviews)
}

// Clone deep-copies the aggregate so callers can mutate the result freely.
func (a *ReviewAggregate) Clone() *ReviewAggregate {
	if a == nil {
		return nil
	}
	out := *a
	out.UserReviews = a.UserReviews.clone()
	out.BusinessReviews = a.BusinessReviews.clone()
	if a.Defects != nil {
		out.Defects = append([]string(nil), a.Defects...)
	}
	return &out
}

func (b ReviewBucket) clone() ReviewBucket {
	out := ReviewBucket{
		GoodReviews: make([]GoodReview, len(b.GoodReviews)),
		BadReviews:  make([]BadReview, len(b.BadReviews)),
	}
	copy(out.GoodReviews, b.GoodReviews)
	for i, r := range b.BadReviews {
		if r.Defects != nil {
			r.Defects = append([]string(nil), r.Defects...)
		}
		out.BadReviews[i] = r
	}
	return out
}

// IncomingReview is a validated submission before it is merged into an
// aggregate. Rating is used by good reviews, Defects by bad ones.
type IncomingReview struct {
	ReviewEntry
	Rating  float64
	Defects []string
}
