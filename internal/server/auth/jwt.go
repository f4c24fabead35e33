// Package auth signs and checks the management bearer tokens that gate
// upload, publish and token issue.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into every management token.
const Issuer = "assetorigin"

// Claims are the registered claims plus the operator name.
type Claims struct {
	jwt.RegisteredClaims
	Operator string `json:"operator"`
}

// GenerateToken signs an HS256 token for operator valid for validity.
func GenerateToken(operator string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Operator: operator,
	})

	s, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// OperatorFromToken verifies tokenString and returns the operator name.
// Every failure, expiry included, is common.ErrorUnauthorized.
func OperatorFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", common.ErrorUnauthorized)
		}
		return "", fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}
	if !token.Valid {
		return "", common.ErrorUnauthorized
	}

	return claims.Operator, nil
}
