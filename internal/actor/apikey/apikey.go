// Package apikey authenticates service accounts with static keys. Keys are
// presented as "<account>.<secret>" in the X-Api-Key header; only the bcrypt
// hash of the secret is ever stored or configured.
package apikey

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"custos/pkg/actor"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// Account is one configured service identity.
type Account struct {
	ID    id.ActorID
	Name  string
	Hash  string
	Roles []string
}

// GenerateSecret creates a cryptographically secure random secret.
// Returns a base64-encoded string suitable for use as an API key secret.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashSecret creates a bcrypt hash of the provided secret for storage.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", dErrors.New(dErrors.CodeValidation, "secret cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "secret is too long")
		}
		return "", fmt.Errorf("could not hash secret: %w", err)
	}
	return string(hashed), nil
}

// Service verifies presented keys against the configured accounts.
type Service struct {
	accounts map[string]Account
}

// NewService indexes accounts by name. Duplicate names keep the last entry.
func NewService(accounts []Account) *Service {
	indexed := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		indexed[a.Name] = a
	}
	return &Service{accounts: indexed}
}

// Verify checks a presented account name and secret. Unknown accounts and
// wrong secrets return the same error so probing cannot enumerate names.
func (s *Service) Verify(name, secret string) (actor.Actor, error) {
	account, ok := s.accounts[name]
	if !ok {
		// Burn a comparison anyway to keep timing uniform.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000"), []byte(secret))
		return actor.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid API key")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Hash), []byte(secret)); err != nil {
		return actor.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid API key")
	}
	return actor.Actor{
		ID:            account.ID,
		Name:          account.Name,
		Authenticated: true,
		Roles:         account.Roles,
	}, nil
}

// ParseAccounts decodes "id:name:bcrypt-hash:role|role" config entries.
// Bcrypt hashes never contain colons, so a plain colon split is safe.
func ParseAccounts(entries []string) ([]Account, error) {
	accounts := make([]Account, 0, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(entry, ":", 4)
		if len(parts) < 3 {
			return nil, dErrors.NewFieldValidation("service_keys",
				fmt.Sprintf("malformed entry %q: want id:name:hash[:roles]", entry))
		}
		actorID, err := id.ParseActorID(parts[0])
		if err != nil {
			return nil, err
		}
		account := Account{
			ID:   actorID,
			Name: parts[1],
			Hash: parts[2],
		}
		if len(parts) == 4 && parts[3] != "" {
			account.Roles = strings.Split(parts[3], "|")
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}
