package utils

import (
	"errors"
	"fmt"
	"time"

	"portal-chat/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid access token")

// TokenMetadata struct to describe metadata in JWT.
type TokenMetadata struct {
	UserID string
	Role   string
	Exp    int64
}

// SigningMethod returns the HMAC method named by JWT_ALG, HS256 by default.
func SigningMethod() *jwt.SigningMethodHMAC {
	switch config.Config("JWT_ALG") {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

// SigningKey returns the shared secret of the auth service.
func SigningKey() []byte {
	return []byte(config.Config("JWT_SECRET"))
}

// GenerateToken issues an access token the way the auth service does. The
// service itself only verifies tokens; this is used by tests and local tools.
func GenerateToken(userID, role string, ttl time.Duration, key []byte) (string, error) {
	claims := jwt.MapClaims{}

	claims["sub"] = userID
	if role != "" {
		claims["role"] = role
	}
	claims["exp"] = time.Now().Add(ttl).Unix()

	token := jwt.NewWithClaims(SigningMethod(), claims)
	t, err := token.SignedString(key)
	if err != nil {
		return "", err
	}

	return t, nil
}

// CheckAndExtractTokenMetadata verifies token with key, accepting only the
// algorithm named by JWT_ALG like the REST guard does.
func CheckAndExtractTokenMetadata(token string, key []byte) (*TokenMetadata, error) {
	t, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithValidMethods([]string{SigningMethod().Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	return MetadataFromClaims(claims)
}

// MetadataFromClaims reads the subject, role and expiry of verified claims.
func MetadataFromClaims(claims jwt.MapClaims) (*TokenMetadata, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidToken
	}

	meta := &TokenMetadata{UserID: sub}
	if role, ok := claims["role"].(string); ok {
		meta.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		meta.Exp = exp.Unix()
	}
	return meta, nil
}
