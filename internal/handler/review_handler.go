package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"banknote-review-service/internal/apperr"
	"banknote-review-service/internal/middleware"
	"banknote-review-service/internal/model"
	"banknote-review-service/internal/service"
)

// BillInfoDTO identifies the banknote a review targets.
type BillInfoDTO struct {
	SerialNumber string          `json:"serialNumber"`
	Value        model.BillValue `json:"value"`
	Series       string          `json:"series"`
}

// ReviewBodyDTO is the review itself. Rating applies to good reviews,
// defects to bad ones.
type ReviewBodyDTO struct {
	Comment string     `json:"comment" binding:"max=2000"`
	Date    *time.Time `json:"date"`
	Rating  *float64   `json:"rating"`
	Defects []string   `json:"defects" binding:"max=50"`
}

// SubmitReviewRequestDTO is the JSON payload of POST /reviews.
type SubmitReviewRequestDTO struct {
	BillInfo     *BillInfoDTO   `json:"billInfo"`
	Review       *ReviewBodyDTO `json:"review"`
	TypeOfReview string         `json:"typeOfReview"`
}

// Validate checks presence and per-kind rules and returns the service input.
func (r *SubmitReviewRequestDTO) Validate() (service.SubmitReviewInput, error) {
	var in service.SubmitReviewInput
	if r.BillInfo == nil {
		return in, apperr.Validation("Undefined billInfo")
	}
	if r.Review == nil {
		return in, apperr.Validation("Undefined review")
	}
	if r.TypeOfReview == "" {
		return in, apperr.Validation("Undefined type of review")
	}
	kind, ok := model.ParseKind(r.TypeOfReview)
	if !ok {
		return in, apperr.Validation("Invalid type of review")
	}
	bill, err := billIdentity(r.BillInfo.SerialNumber, string(r.BillInfo.Value), r.BillInfo.Series)
	if err != nil {
		return in, err
	}

	in = service.SubmitReviewInput{
		Bill:    bill,
		Kind:    kind,
		Comment: strings.TrimSpace(r.Review.Comment),
	}
	if r.Review.Date != nil {
		in.Date = r.Review.Date.UTC()
	}

	switch kind {
	case model.KindGood:
		if r.Review.Rating == nil {
			return in, apperr.Validation("Undefined rating")
		}
		if *r.Review.Rating < 1 || *r.Review.Rating > 5 {
			return in, apperr.Validation("Rating must be between 1 and 5")
		}
		in.Rating = *r.Review.Rating
	case model.KindBad:
		for _, d := range r.Review.Defects {
			if d = strings.TrimSpace(d); d != "" {
				in.Defects = append(in.Defects, d)
			}
		}
		if len(in.Defects) == 0 {
			return in, apperr.Validation("Undefined defects")
		}
	}
	return in, nil
}

// GetReviewQueryDTO is the query string of GET /reviews.
type GetReviewQueryDTO struct {
	SerialNumber string `form:"sn"`
	Value        string `form:"value"`
	Series       string `form:"series"`
}

func (q GetReviewQueryDTO) Validate() (model.BanknoteIdentity, error) {
	return billIdentity(q.SerialNumber, q.Value, q.Series)
}

func billIdentity(sn, value, series string) (model.BanknoteIdentity, error) {
	bill := model.BanknoteIdentity{
		SerialNumber: model.NormalizeSerial(sn),
		Value:        model.BillValue(strings.TrimSpace(value)),
		Series:       strings.TrimSpace(series),
	}
	switch {
	case bill.SerialNumber == "":
		return bill, apperr.Validation("Undefined serial number")
	case bill.Value == "":
		return bill, apperr.Validation("Undefined value")
	case bill.Series == "":
		return bill, apperr.Validation("Undefined series")
	}
	return bill, nil
}

// ReviewHandler ties HTTP requests to the ReviewService.
type ReviewHandler struct {
	reviewSvc *service.ReviewService
}

func NewReviewHandler(rs *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: rs}
}

// RegisterRoutes registers:
//
//	POST /reviews
//	GET  /reviews?sn=&value=&series=
func (h *ReviewHandler) RegisterRoutes(router gin.IRouter) {
	grp := router.Group("/reviews")
	{
		grp.POST("", middleware.RequireAuth(), h.SubmitReview)
		grp.GET("", h.GetReview)
	}
}

// SubmitReview handles POST /reviews
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	session := middleware.SessionFrom(c)
	if session.Location == "" {
		_ = c.Error(apperr.Validation("Location required"))
		return
	}

	var req SubmitReviewRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Wrap(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	in, err := req.Validate()
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.reviewSvc.SubmitReview(c.Request.Context(), session, in); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusCreated)
}

// GetReview handles GET /reviews. An unseen banknote answers 404 with the
// zero-valued view.
func (h *ReviewHandler) GetReview(c *gin.Context) {
	var q GetReviewQueryDTO
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(apperr.Wrap(http.StatusBadRequest, "Invalid query", err))
		return
	}
	bill, err := q.Validate()
	if err != nil {
		_ = c.Error(err)
		return
	}

	authenticated := middleware.SessionFrom(c).IsLoggedIn()
	view, found, err := h.reviewSvc.GetReview(c.Request.Context(), bill, authenticated)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, view)
		return
	}
	c.JSON(http.StatusOK, view)
}
