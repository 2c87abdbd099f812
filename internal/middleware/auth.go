package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"crowdfund/internal/model"
)

const userIDKey = "UserID"

// Claims carry the authenticated user in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for user. Used by tests and tooling; the
// platform's identity service issues tokens in production.
func IssueToken(secret []byte, user uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   user.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates the token and returns the user it was issued for.
func ParseToken(secret []byte, token string) (uuid.UUID, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, err
	}
	user, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.New("subject is not a user id")
	}
	return user, nil
}

// JWTAuth requires a bearer token and stores the user id in the context.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(c, "missing bearer token")
			return
		}
		user, err := ParseToken(secret, token)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}
		c.Set(userIDKey, user)
		c.Next()
	}
}

// UserID returns the user stored by JWTAuth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	user, ok := v.(uuid.UUID)
	return user, ok
}

// AdminAuth checks the X-API-Key header. An empty key disables admin routes.
func AdminAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-API-Key")
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			unauthorized(c, "invalid API key")
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, model.Response{
		Success: false,
		Error:   msg,
	})
}
