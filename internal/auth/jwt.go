package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what a valid token tells us about its bearer.
type Claims struct {
	UserID    int64
	SessionID string
	ExpiresAt time.Time
}

// Manager signs and verifies HS256 tokens with one secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken creates a new JWT (passport) for a given user ID.
// Each token opens a new session; "sid" keys the per-session token counter.
func (m *Manager) GenerateToken(userID int64) (string, string, error) {
	// 1. Create the "claims" (the data inside the passport).
	now := m.now()
	sessionID := uuid.NewString()
	claims := jwt.MapClaims{
		"sub": userID,
		"sid": sessionID,
		"exp": now.Add(m.ttl).Unix(),
		"iat": now.Unix(),
	}

	// 2. Create the token object and sign it with our secret key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", "", err
	}

	return tokenString, sessionID, nil
}

// ValidateToken parses and validates a JWT token string.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	// 1. Parse the token string, pinning the signing method.
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err // Token parsing failed (e.g., expired, malformed)
	}

	// 2. Check if the token is valid and get the claims.
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// 3. Get the user ID ("sub"). JSON numbers decode as float64.
	userIDFloat, ok := claims["sub"].(float64)
	if !ok {
		return nil, errors.New("invalid subject claim")
	}
	sessionID, _ := claims["sid"].(string)

	out := &Claims{UserID: int64(userIDFloat), SessionID: sessionID}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
