// Package jwtauth issues and validates the HS256 bearer tokens the reference
// server accepts, and resolves them into actors.
package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"custos/pkg/actor"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/email"
)

// Claims are the JWT claims carried by access tokens. The subject is the
// actor ID.
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	leeway     time.Duration
}

func NewService(signingKey, issuer, audience string, leeway time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		leeway:     leeway,
	}
}

// Issue signs a token for the given actor. Used by tests and by deployments
// that mint their own tokens instead of fronting an external issuer.
func (s *Service) Issue(a actor.Actor, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name:  a.Name,
		Email: a.Email,
		Roles: a.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Validate parses and verifies a token string.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithLeeway(s.leeway),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// ActorFromClaims converts validated claims into an actor. Tokens without a
// name claim fall back to a display name derived from the email address.
func ActorFromClaims(claims *Claims) (actor.Actor, error) {
	actorID, err := id.ParseActorID(claims.Subject)
	if err != nil {
		return actor.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}

	name := claims.Name
	if name == "" {
		name = email.DisplayName(claims.Email)
	}

	return actor.Actor{
		ID:            actorID,
		Name:          name,
		Email:         claims.Email,
		Authenticated: true,
		Roles:         claims.Roles,
	}, nil
}
