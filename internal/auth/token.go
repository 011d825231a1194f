package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 24 * time.Hour

var (
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned for any other token that cannot be trusted.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the decoded payload of a session token.
type Claims struct {
	UserID    int
	TokenID   string
	ExpiresAt time.Time
}

// TokenIssuer signs and parses HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for userID with a random token id.
func (t *TokenIssuer) Issue(userID int) (string, Claims, error) {
	now := t.now()
	claims := Claims{
		UserID:    userID,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(t.ttl),
	}
	registered := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		ID:        claims.TokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, registered)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, claims, nil
}

// Parse verifies tokenString and returns its claims.
func (t *TokenIssuer) Parse(tokenString string) (Claims, error) {
	registered := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &registered, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !token.Valid {
		return Claims{}, ErrTokenInvalid
	}

	userID, err := strconv.Atoi(strings.TrimSpace(registered.Subject))
	if err != nil || userID < 1 {
		return Claims{}, ErrTokenInvalid
	}
	claims := Claims{UserID: userID, TokenID: registered.ID}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}
