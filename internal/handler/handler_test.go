package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"banknote-review-service/internal/logger"
	"banknote-review-service/internal/middleware"
	"banknote-review-service/internal/model"
	"banknote-review-service/internal/repository"
	"banknote-review-service/internal/service"
)

type stubUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: map[string]*model.User{}}
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubUserStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Email]; ok {
		return repository.ErrDuplicate
	}
	cp := *u
	s.users[u.Email] = &cp
	return nil
}

func (s *stubUserStore) UpdateAvatar(_ context.Context, userID, avatar string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			u.Avatar = avatar
			return nil
		}
	}
	return repository.ErrNotFound
}

type stubAvatarStore struct {
	mu    sync.Mutex
	files map[string]stubAvatar
}

type stubAvatar struct {
	data        []byte
	contentType string
}

func (s *stubAvatarStore) Upload(_ context.Context, _ string, contentType string, src io.Reader) (string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "avatar" + string(rune('0'+len(s.files)))
	s.files[id] = stubAvatar{data: data, contentType: contentType}
	return id, nil
}

func (s *stubAvatarStore) Download(_ context.Context, id string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	return f.data, f.contentType, nil
}

type testServer struct {
	router *gin.Engine
	tokens *service.TokenService
	users  *stubUserStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Nop()
	tokens := service.NewTokenService("test-secret")
	users := newStubUserStore()
	avatars := &stubAvatarStore{files: map[string]stubAvatar{}}

	router := NewRouter(RouterDeps{
		Log:            log,
		Sessions:       middleware.NewSessionResolver(tokens, nil, log),
		Reviews:        service.NewReviewService(repository.NewMemoryReviewStore(), log),
		Accounts:       service.NewAccountService(users, tokens, nil, avatars, log),
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	return &testServer{router: router, tokens: tokens, users: users}
}

func (s *testServer) tokenFor(t *testing.T, id, typeOfAccount string) string {
	t.Helper()
	tok, err := s.tokens.Sign(model.Identity{
		ID:            id,
		Email:         id + "@example.com",
		Role:          model.RoleUser,
		TypeOfAccount: typeOfAccount,
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

type requestOpts struct {
	token    string
	location string
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, opts requestOpts) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}
	if opts.location != "" {
		req.Header.Set("X-Location", opts.location)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status: got=%d want=%d body=%s", rec.Code, want, rec.Body.String())
	}
}

func expectMsg(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if got, _ := decodeJSON(t, rec)["msg"].(string); got != want {
		t.Fatalf("msg: got=%q want=%q", got, want)
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/auth/signup", gin.H{
		"fullname": "Ada Lovelace",
		"email":    "Ada@Example.com",
		"password": "hunter22",
	}, requestOpts{})
	expectStatus(t, rec, http.StatusCreated)
	signupToken, _ := decodeJSON(t, rec)["jwt"].(string)
	if signupToken == "" {
		t.Fatalf("signup returned no token")
	}

	rec = srv.do(t, http.MethodGet, "/auth/me", nil, requestOpts{token: signupToken})
	expectStatus(t, rec, http.StatusOK)
	session, ok := decodeJSON(t, rec)["session"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected session object, got %s", rec.Body.String())
	}
	if session["email"] != "ada@example.com" || session["role"] != model.RoleUser ||
		session["typeOfAccount"] != model.AccountRegular || session["avatar"] != model.DefaultAvatar {
		t.Fatalf("unexpected session: %v", session)
	}
	if _, leaked := session["password"]; leaked {
		t.Fatalf("session leaks password: %v", session)
	}

	rec = srv.do(t, http.MethodPost, "/auth/signup", gin.H{
		"fullname": "Someone Else",
		"email":    "ada@example.com",
		"password": "x",
	}, requestOpts{})
	expectStatus(t, rec, http.StatusConflict)
	expectMsg(t, rec, "Email ada@example.com already taken")

	rec = srv.do(t, http.MethodPost, "/auth/login", gin.H{"email": "ada@example.com", "password": "hunter22"}, requestOpts{})
	expectStatus(t, rec, http.StatusOK)
	if tok, _ := decodeJSON(t, rec)["jwt"].(string); tok == "" {
		t.Fatalf("login returned no token")
	}

	rec = srv.do(t, http.MethodPost, "/auth/logout", nil, requestOpts{token: signupToken})
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.Len() != 0 {
		t.Fatalf("logout body should be empty, got %q", rec.Body.String())
	}
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/auth/signup", gin.H{
		"fullname": "Ada", "email": "ada@example.com", "password": "right",
	}, requestOpts{})
	expectStatus(t, rec, http.StatusCreated)

	cases := []struct {
		name   string
		body   gin.H
		status int
		msg    string
	}{
		{"missing password", gin.H{"email": "ada@example.com"}, http.StatusBadRequest, "Invalid credentials"},
		{"unknown user", gin.H{"email": "bob@example.com", "password": "x"}, http.StatusUnauthorized, "User unregistered"},
		{"wrong password", gin.H{"email": "ada@example.com", "password": "wrong"}, http.StatusUnauthorized, "Invalid credentials"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/auth/login", tc.body, requestOpts{})
			expectStatus(t, rec, tc.status)
			expectMsg(t, rec, tc.msg)
		})
	}
}

func TestSignupMissingFields(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/auth/signup", gin.H{"email": "ada@example.com", "password": "x"}, requestOpts{})
	expectStatus(t, rec, http.StatusBadRequest)
	expectMsg(t, rec, "Invalid credentials")
}

func TestMeAnonymous(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/auth/me", nil, requestOpts{token: "not-a-token"})
	expectStatus(t, rec, http.StatusOK)
	body := decodeJSON(t, rec)
	if v, ok := body["session"]; !ok || v != nil {
		t.Fatalf("expected null session, got %s", rec.Body.String())
	}
}

func goodReviewBody(rating float64) gin.H {
	return gin.H{
		"billInfo":     gin.H{"serialNumber": "AB 123", "value": 20, "series": "2010"},
		"review":       gin.H{"comment": "crisp", "rating": rating},
		"typeOfReview": model.GoodReviewLabel,
	}
}

func badReviewBody(defects ...string) gin.H {
	return gin.H{
		"billInfo":     gin.H{"serialNumber": "AB123", "value": "20", "series": "2010"},
		"review":       gin.H{"comment": "worn", "defects": defects},
		"typeOfReview": model.BadReviewLabel,
	}
}

const reviewQuery = "/reviews?sn=AB%20123&value=20&series=2010"

func TestSubmitAndFetchReviews(t *testing.T) {
	srv := newTestServer(t)
	u1 := srv.tokenFor(t, "u1", model.AccountRegular)
	u2 := srv.tokenFor(t, "u2", model.AccountAdmin)
	biz := srv.tokenFor(t, "b1", model.AccountBusiness)
	loc := requestOpts{location: "Quito"}

	steps := []struct {
		token string
		body  gin.H
	}{
		{u1, goodReviewBody(5)},
		{u2, goodReviewBody(3)},
		{u1, badReviewBody("tear")},
		{biz, badReviewBody("tear", "stain")},
	}
	for i, step := range steps {
		opts := loc
		opts.token = step.token
		rec := srv.do(t, http.MethodPost, "/reviews", step.body, opts)
		expectStatus(t, rec, http.StatusCreated)
		if rec.Body.Len() != 0 {
			t.Fatalf("step %d: expected empty body, got %q", i, rec.Body.String())
		}
	}

	rec := srv.do(t, http.MethodGet, reviewQuery, nil, requestOpts{})
	expectStatus(t, rec, http.StatusOK)
	basic := decodeJSON(t, rec)
	if basic["goodReviews"] != float64(2) || basic["badReviews"] != float64(2) || basic["avgRating"] != float64(4) {
		t.Fatalf("unexpected basic view: %v", basic)
	}
	for _, hidden := range []string{"defects", "userReviews", "businessReviews"} {
		if _, ok := basic[hidden]; ok {
			t.Fatalf("anonymous view exposes %q: %v", hidden, basic)
		}
	}
	bill := basic["billInfo"].(map[string]interface{})
	if bill["serialNumber"] != "AB123" || bill["value"] != "20" || bill["series"] != "2010" {
		t.Fatalf("unexpected billInfo: %v", bill)
	}

	rec = srv.do(t, http.MethodGet, reviewQuery, nil, requestOpts{token: u1})
	expectStatus(t, rec, http.StatusOK)
	full := decodeJSON(t, rec)
	defects, _ := full["defects"].([]interface{})
	if len(defects) != 2 || defects[0] != "tear" || defects[1] != "stain" {
		t.Fatalf("unexpected defects: %v", full["defects"])
	}
	userReviews := full["userReviews"].(map[string]interface{})
	if goods := userReviews["goodReviews"].([]interface{}); len(goods) != 2 {
		t.Fatalf("expected two individual good reviews, got %v", goods)
	}
	first := userReviews["goodReviews"].([]interface{})[0].(map[string]interface{})
	if first["userId"] != "u1" || first["location"] != "Quito" || first["rating"] != float64(5) {
		t.Fatalf("unexpected projected review: %v", first)
	}
	business := full["businessReviews"].(map[string]interface{})
	if bads := business["badReviews"].([]interface{}); len(bads) != 1 {
		t.Fatalf("expected one business bad review, got %v", bads)
	}
}

func TestSubmitReviewRejections(t *testing.T) {
	srv := newTestServer(t)
	u1 := srv.tokenFor(t, "u1", model.AccountRegular)
	odd := srv.tokenFor(t, "u9", "vip")

	rec := srv.do(t, http.MethodPost, "/reviews", goodReviewBody(4), requestOpts{token: u1, location: "Lima"})
	expectStatus(t, rec, http.StatusCreated)

	cases := []struct {
		name   string
		opts   requestOpts
		body   interface{}
		status int
		msg    string
	}{
		{"anonymous", requestOpts{location: "Lima"}, goodReviewBody(4), http.StatusUnauthorized, "Unauthorized"},
		{"no location", requestOpts{token: u1}, goodReviewBody(4), http.StatusBadRequest, "Location required"},
		{"duplicate", requestOpts{token: u1, location: "Lima"}, goodReviewBody(2), http.StatusConflict,
			"This user already posted a review of this type"},
		{"missing billInfo", requestOpts{token: u1, location: "Lima"},
			gin.H{"review": gin.H{"rating": 4}, "typeOfReview": model.GoodReviewLabel}, http.StatusBadRequest, "Undefined billInfo"},
		{"unknown type", requestOpts{token: u1, location: "Lima"},
			gin.H{"billInfo": gin.H{"serialNumber": "X1", "value": 5, "series": "A"}, "review": gin.H{}, "typeOfReview": "Meh"},
			http.StatusBadRequest, "Invalid type of review"},
		{"rating out of range", requestOpts{token: u1, location: "Lima"}, goodReviewBody(9), http.StatusBadRequest,
			"Rating must be between 1 and 5"},
		{"blank defects", requestOpts{token: u1, location: "Lima"}, badReviewBody(" "), http.StatusBadRequest,
			"Undefined defects"},
		{"unknown account type", requestOpts{token: odd, location: "Lima"}, goodReviewBody(4), http.StatusInternalServerError,
			"Invalid type of account: vip"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/reviews", tc.body, tc.opts)
			expectStatus(t, rec, tc.status)
			expectMsg(t, rec, tc.msg)
		})
	}

	rec = srv.do(t, http.MethodGet, reviewQuery, nil, requestOpts{token: u1})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeJSON(t, rec)["avgRating"]; got != float64(4) {
		t.Fatalf("rejected submissions changed the aggregate: avgRating=%v", got)
	}
}

func TestGetUnknownReview(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/reviews?sn=ZZ9&value=100&series=1999", nil, requestOpts{})
	expectStatus(t, rec, http.StatusNotFound)
	body := decodeJSON(t, rec)
	if body["goodReviews"] != float64(0) || body["badReviews"] != float64(0) || body["avgRating"] != float64(0) {
		t.Fatalf("unexpected zero view: %v", body)
	}
	if v, ok := body["defects"]; !ok || v != nil {
		t.Fatalf("expected null defects, got %v", body)
	}

	token := srv.tokenFor(t, "u1", model.AccountRegular)
	rec = srv.do(t, http.MethodGet, "/reviews?sn=ZZ9&value=100&series=1999", nil, requestOpts{token: token})
	expectStatus(t, rec, http.StatusNotFound)
	full := decodeJSON(t, rec)
	if _, ok := full["userReviews"].(map[string]interface{}); !ok {
		t.Fatalf("authenticated zero view misses userReviews: %v", full)
	}
}

func TestGetReviewMissingQuery(t *testing.T) {
	srv := newTestServer(t)
	cases := map[string]string{
		"/reviews?value=20&series=2010":  "Undefined serial number",
		"/reviews?sn=AB1&series=2010":    "Undefined value",
		"/reviews?sn=AB1&value=20":       "Undefined series",
		"/reviews?sn=%20&value=20&series": "Undefined serial number",
	}
	for path, msg := range cases {
		rec := srv.do(t, http.MethodGet, path, nil, requestOpts{})
		expectStatus(t, rec, http.StatusBadRequest)
		expectMsg(t, rec, msg)
	}
}

func TestPagesAndFallback(t *testing.T) {
	srv := newTestServer(t)
	user := srv.tokenFor(t, "u1", model.AccountRegular)
	admin, err := srv.tokens.Sign(model.Identity{ID: "a1", Role: model.RoleAdmin, TypeOfAccount: model.AccountAdmin})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := []struct {
		path   string
		token  string
		status int
		body   string
	}{
		{"/dashboard", user, http.StatusOK, "Dashboard Page"},
		{"/admin", admin, http.StatusOK, "Admin Page"},
		{"/nope", "", http.StatusNotFound, "Route does not exist"},
	}
	for _, tc := range cases {
		rec := srv.do(t, http.MethodGet, tc.path, nil, requestOpts{token: tc.token})
		expectStatus(t, rec, tc.status)
		if rec.Body.String() != tc.body {
			t.Fatalf("%s: body got=%q want=%q", tc.path, rec.Body.String(), tc.body)
		}
	}

	rec := srv.do(t, http.MethodGet, "/dashboard", nil, requestOpts{})
	expectStatus(t, rec, http.StatusUnauthorized)
	expectMsg(t, rec, "Unauthorized")

	rec = srv.do(t, http.MethodGet, "/admin", nil, requestOpts{token: user})
	expectStatus(t, rec, http.StatusForbidden)
	expectMsg(t, rec, "Access not allowed")
}

func multipartAvatar(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="me.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestAvatarUploadAndDownload(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/auth/signup", gin.H{
		"fullname": "Ada", "email": "ada@example.com", "password": "pw",
	}, requestOpts{})
	expectStatus(t, rec, http.StatusCreated)
	token, _ := decodeJSON(t, rec)["jwt"].(string)

	upload := func(contentType string, data []byte, token string) *httptest.ResponseRecorder {
		body, formType := multipartAvatar(t, contentType, data)
		req := httptest.NewRequest(http.MethodPut, "/auth/avatar", body)
		req.Header.Set("Content-Type", formType)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		return rec
	}

	expectStatus(t, upload("image/png", []byte("png"), ""), http.StatusUnauthorized)
	expectStatus(t, upload("text/plain", []byte("hi"), token), http.StatusBadRequest)

	rec = upload("image/png", []byte("\x89PNG"), token)
	expectStatus(t, rec, http.StatusOK)
	avatar, _ := decodeJSON(t, rec)["avatar"].(string)
	if !strings.HasPrefix(avatar, "/avatars/") {
		t.Fatalf("unexpected avatar path %q", avatar)
	}
	if u, _ := srv.users.FindByEmail(context.Background(), "ada@example.com"); u.Avatar != avatar {
		t.Fatalf("user avatar not updated: %q", u.Avatar)
	}

	rec = srv.do(t, http.MethodGet, avatar, nil, requestOpts{})
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "\x89PNG" || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected avatar response: %q %q", rec.Header().Get("Content-Type"), rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/avatars/missing", nil, requestOpts{})
	expectStatus(t, rec, http.StatusNotFound)
	expectMsg(t, rec, "Avatar not found")
}
