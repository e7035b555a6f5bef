package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	BearerPrefix        = "Bearer "
	TokenIssuer         = "virdan-auth"
	AccessTokenDuration = 15 * time.Minute
)

// HashToken is the form an access token is stored in Redis.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func unauthorized(message string) *model.ValidationError {
	return &model.ValidationError{
		Code:    constant.ERR_UNATHORIZED_ERROR,
		Message: message,
		Param:   "accessToken",
	}
}

// GenerateAccessToken signs a token the same way the auth service does.
// Only tests and local tooling mint tokens here.
func GenerateAccessToken(userId uuid.UUID, jwtSecretKey string) (string, error) {
	if jwtSecretKey == "" {
		return "", errors.New("jwt secret key is not configured")
	}

	now := time.Now().UTC()
	claims := &model.Claims{
		UserId: userId,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
			Subject:   "user:" + userId.String(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecretKey))
}

// ValidateAccessToken checks a "Bearer <jwt>" header value and returns the
// raw token with the user it was issued to.
func ValidateAccessToken(authHeader string, log *zap.Logger, jwtSecretKey string) (string, uuid.UUID, error) {
	if jwtSecretKey == "" {
		return "", uuid.Nil, errors.New("jwt secret key is not configured")
	}

	switch {
	case authHeader == "":
		return "", uuid.Nil, unauthorized("No authentication token is provided")
	case !strings.HasPrefix(authHeader, BearerPrefix):
		return "", uuid.Nil, unauthorized("Authentication token format is not match")
	}

	tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
	if tokenString == "" {
		return "", uuid.Nil, unauthorized("Authentication token is empty")
	}

	claims := &model.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		log.Debug("access token rejected", zap.Error(err))
		return "", uuid.Nil, parseError(err)
	}

	if !token.Valid || claims.UserId == uuid.Nil {
		return "", uuid.Nil, unauthorized("Authentication token is invalid")
	}

	return tokenString, claims.UserId, nil
}

func parseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return unauthorized("Authentication token is malformed")
	case errors.Is(err, jwt.ErrTokenExpired):
		return unauthorized("Authentication token is expired")
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return unauthorized("Authentication token is not valid yet")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return unauthorized("Authentication token has invalid signature")
	default:
		return unauthorized("Authentication token is invalid")
	}
}
