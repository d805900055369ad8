package server

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/roach88/memorychain/internal/ir"
)

type contextKey string

const (
	signerKey    contextKey = "signer"
	requestIDKey contextKey = "requestID"
)

var errMissingRequestID = errors.New("token has no jti")

// SignRequest issues a bearer token authorizing one request by the holder
// of key. requestID becomes the transaction's request id.
func SignRequest(key ed25519.PrivateKey, requestID string, expiresAt time.Time) (string, error) {
	signer := ir.Address(key.Public().(ed25519.PublicKey))
	claims := jwt.RegisteredClaims{
		Subject:   signer.String(),
		ID:        requestID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
}

// parseRequestToken verifies a bearer token against the key named by its
// own subject.
func parseRequestToken(raw string) (ir.Address, string, error) {
	claims := &jwt.RegisteredClaims{}
	var signer ir.Address

	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		sub, err := token.Claims.GetSubject()
		if err != nil {
			return nil, err
		}
		signer, err = ir.ParseAddress(sub)
		if err != nil {
			return nil, fmt.Errorf("subject: %w", err)
		}
		return ed25519.PublicKey(signer[:]), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return ir.Address{}, "", err
	}
	if claims.ID == "" {
		return ir.Address{}, "", errMissingRequestID
	}
	return signer, claims.ID, nil
}

// authenticate rejects requests without a valid request token and stores
// the signer and request id in the context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || raw == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "bearer token required")
			return
		}

		signer, requestID, err := parseRequestToken(raw)
		if err != nil {
			s.logger.Debug("rejected request token", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), signerKey, signer)
		ctx = context.WithValue(ctx, requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authFromContext returns the authenticated signer and request id.
func authFromContext(ctx context.Context) (ir.Address, string, bool) {
	signer, ok := ctx.Value(signerKey).(ir.Address)
	if !ok {
		return ir.Address{}, "", false
	}
	requestID, ok := ctx.Value(requestIDKey).(string)
	return signer, requestID, ok
}
