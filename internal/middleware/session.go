package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"banknote-review-service/internal/logger"
	"banknote-review-service/internal/model"
	"banknote-review-service/internal/service"
)

const (
	sessionKey     = "session"
	locationHeader = "X-Location"
)

type TokenParser interface {
	Parse(token string) (*service.SessionClaims, error)
}

// RevocationChecker reports logged-out token ids. Optional.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SessionResolver turns the Authorization header into a session. It never
// rejects a request: anything it cannot verify becomes anonymous.
type SessionResolver struct {
	tokens  TokenParser
	revoked RevocationChecker
	log     *logger.Logger
}

func NewSessionResolver(tokens TokenParser, revoked RevocationChecker, log *logger.Logger) *SessionResolver {
	return &SessionResolver{
		tokens:  tokens,
		revoked: revoked,
		log:     log.With("middleware", "SessionResolver"),
	}
}

// Resolve returns the caller identity for an Authorization header value.
func (r *SessionResolver) Resolve(ctx context.Context, authHeader string) model.Session {
	if strings.TrimSpace(authHeader) == "" {
		return model.Session{}
	}
	tokenStr := bearerToken(authHeader)
	if tokenStr == "" {
		r.log.Debug("authorization header without token")
		return model.Session{}
	}

	claims, err := r.tokens.Parse(tokenStr)
	if err != nil {
		r.log.Debug("session token rejected", "error", err)
		return model.Session{}
	}
	if r.revoked != nil && claims.ID != "" {
		revoked, err := r.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			r.log.Warn("revocation check failed", "error", err)
			return model.Session{}
		}
		if revoked {
			r.log.Debug("session token revoked", "user_id", claims.User.ID)
			return model.Session{}
		}
	}

	user := claims.User
	session := model.Session{User: &user, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	} else {
		session.ExpiresAt = time.Now().Add(service.SessionTTL)
	}
	return session
}

// Handler attaches the resolved session, plus the X-Location header, to the
// gin context.
func (r *SessionResolver) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := r.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		session.Location = strings.TrimSpace(c.GetHeader(locationHeader))
		c.Set(sessionKey, session)
		c.Next()
	}
}

// SessionFrom returns the session attached by SessionResolver.Handler, or an
// anonymous one.
func SessionFrom(c *gin.Context) model.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(model.Session); ok {
			return s
		}
	}
	return model.Session{}
}

// bearerToken takes the text after the scheme prefix.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if i := strings.IndexByte(header, ' '); i >= 0 {
		return strings.TrimSpace(header[i+1:])
	}
	return header
}
