package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/voxlink/huddle/internal/core"
	"github.com/voxlink/huddle/internal/domain"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidClaims     = errors.New("invalid claim payload")
)

// Claim fields are tried in order; the first present non-empty string wins,
// falling back to the caller-claimed value.
var (
	userIDClaims      = []string{"sub", "userId", "user_id", "uid"}
	displayNameClaims = []string{"name", "displayName", "display_name", "nickname", "preferred_username"}
	photoURLClaims    = []string{"picture", "photoURL", "avatar"}
)

// IdentityResolver verifies client-supplied identity claims. With no secret
// configured trust is delegated to the caller; otherwise the handshake must
// carry a token signed with the shared HMAC secret.
type IdentityResolver struct {
	secret []byte
}

func NewIdentityResolver(secret string) *IdentityResolver {
	r := &IdentityResolver{}
	if secret != "" {
		r.secret = []byte(secret)
	}
	return r
}

// Resolve produces the verified identity for a connection attempt.
func (r *IdentityResolver) Resolve(hs core.Handshake, claimed domain.Identity) (domain.Identity, error) {
	if r.secret == nil {
		if claimed.UserID == "" || claimed.DisplayName == "" {
			return domain.Identity{}, ErrInvalidClaims
		}
		return claimed, nil
	}

	raw := extractCredential(hs)
	if raw == "" {
		return domain.Identity{}, ErrMissingCredential
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		log.Warn().Err(err).Str("module", "app.identity").Msg("credential verification failed")
		return domain.Identity{}, ErrInvalidCredential
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, ErrInvalidCredential
	}

	id := domain.Identity{
		UserID:      domain.UserID(firstClaim(claims, userIDClaims, string(claimed.UserID))),
		DisplayName: firstClaim(claims, displayNameClaims, claimed.DisplayName),
		PhotoURL:    firstClaim(claims, photoURLClaims, claimed.PhotoURL),
	}
	if id.UserID == "" || id.DisplayName == "" {
		return domain.Identity{}, ErrInvalidClaims
	}
	return id, nil
}

// extractCredential prefers the explicit auth field over the authorization
// header; a leading "Bearer " prefix is stripped case-insensitively.
func extractCredential(hs core.Handshake) string {
	raw := strings.TrimSpace(hs.AuthToken)
	if raw == "" {
		raw = strings.TrimSpace(hs.Authorization)
	}
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}

func firstClaim(claims jwt.MapClaims, keys []string, fallback string) string {
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}
