package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// SessionCookie carries the access token for browser clients.
const SessionCookie = "inkwise_session"

const tokenTTL = 24 * time.Hour

var ErrTokenRevoked = errors.New("token has been revoked")

// RevocationList remembers logged-out tokens until they expire.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisRevocations stores revoked token ids as expiring Redis keys.
type RedisRevocations struct {
	Client *redis.Client
}

func (r *RedisRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return r.Client.Set(ctx, "revoked:"+jti, "1", ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.Client.Exists(ctx, "revoked:"+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type JWTAuth struct {
	Secret  []byte
	revoked RevocationList
}

func NewJWTAuth(secret string, revoked RevocationList) *JWTAuth {
	return &JWTAuth{Secret: []byte(secret), revoked: revoked}
}

// Claims is the verified content of an access token.
type Claims struct {
	UserID    uuid.UUID
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// GenerateToken creates a JWT with 24 hour expiry
func (j *JWTAuth) GenerateToken(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"email":   email,
		"jti":     uuid.NewString(),
		"exp":     now.Add(tokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// ParseToken verifies signature, expiry and revocation.
func (j *JWTAuth) ParseToken(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := j.parseClaims(tokenStr)
	if err != nil {
		return nil, err
	}

	if j.revoked != nil && claims.TokenID != "" {
		revoked, err := j.revoked.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

func (j *JWTAuth) parseClaims(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	userIDStr, _ := mc["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in token: %w", err)
	}

	claims := &Claims{UserID: userID}
	claims.Email, _ = mc["email"].(string)
	claims.TokenID, _ = mc["jti"].(string)
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

// Revoke invalidates a token for the rest of its lifetime.
// Tokens that no longer verify are already unusable and are ignored.
func (j *JWTAuth) Revoke(ctx context.Context, tokenStr string) error {
	claims, err := j.parseClaims(tokenStr)
	if err != nil {
		return nil
	}
	if j.revoked == nil || claims.TokenID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return j.revoked.Revoke(ctx, claims.TokenID, ttl)
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Middleware validates JWT and attaches user_id to context.
// Unauthenticated API calls get a 401 JSON body.
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := TokenFromRequest(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", r)
			return
		}

		claims, err := j.ParseToken(r.Context(), tokenStr)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", r)
			} else {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", r)
			}
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PageMiddleware redirects unauthenticated page visits to the landing page.
func (j *JWTAuth) PageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := TokenFromRequest(r)
		if tokenStr == "" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		claims, err := j.ParseToken(r.Context(), tokenStr)
		if err != nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts user_id from request context
func GetUserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(UserIDKey).(uuid.UUID)
	return id
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":       code,
			"message":    message,
			"request_id": requestID,
		},
	})
}
