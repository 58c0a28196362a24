// Copyright (c) 2026 SafraReport. All rights reserved.

package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PreviewClaims is the payload embedded inside a draft preview token.
//
// Preview tokens let an editor share an unpublished article with reviewers
// without granting them a back-office session. They are short-lived, signed
// links — not a session mechanism.
type PreviewClaims struct {
	jwt.RegisteredClaims

	// ArticleID is the draft the token grants read access to.
	ArticleID string `json:"art"`
}

// PreviewTokenService signs and verifies draft preview tokens using HS256.
type PreviewTokenService struct {
	secret []byte
	issuer string
}

// NewPreviewTokenService creates a new PreviewTokenService.
func NewPreviewTokenService(secret, issuer string) (*PreviewTokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: preview secret must not be empty")
	}
	return &PreviewTokenService{secret: []byte(secret), issuer: issuer}, nil
}

// GeneratePreviewToken creates a signed preview token for the given article.
func (service *PreviewTokenService) GeneratePreviewToken(articleID string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := PreviewClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   articleID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		ArticleID: articleID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign preview token: %w", err)
	}

	return signedToken, nil
}

// VerifyPreviewToken checks the signature and validity of a preview token
// and returns the article ID it grants access to.
func (service *PreviewTokenService) VerifyPreviewToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PreviewClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		return "", fmt.Errorf("sec: invalid preview token: %w", err)
	}

	claims, ok := token.Claims.(*PreviewClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("sec: invalid preview token claims")
	}

	return claims.ArticleID, nil
}
