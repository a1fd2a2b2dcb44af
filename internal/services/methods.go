package services

import (
	"context"
	"time"

	"github.com/go-authlink/authlink/internal/auth"
	"github.com/go-authlink/authlink/internal/linker"
	"github.com/go-authlink/authlink/internal/models"
)

// LoginMethodSummary is the client-facing view of a login method. Password
// hashes never leave the store layer.
type LoginMethodSummary struct {
	ID         string    `json:"id"`
	Provider   string    `json:"provider"`
	Identifier string    `json:"identifier,omitempty"` // local username or provider handle
	IsPrimary  bool      `json:"is_primary"`
	IsVerified bool      `json:"is_verified"`
	LinkedAt   time.Time `json:"linked_at"`
	LastUsedAt time.Time `json:"last_used_at,omitzero"`
}

// MethodService manages an account's login methods on top of the linker.
type MethodService struct {
	linker *linker.Linker
	hasher auth.PasswordHasher
}

// NewMethodService wires the method-management service.
func NewMethodService(l *linker.Linker, hasher auth.PasswordHasher) *MethodService {
	return &MethodService{linker: l, hasher: hasher}
}

// List returns the account's methods, oldest first.
func (s *MethodService) List(ctx context.Context, accountID string) ([]LoginMethodSummary, error) {
	methods, err := s.linker.ListLoginMethods(accountID)
	if err != nil {
		return nil, err
	}
	out := make([]LoginMethodSummary, 0, len(methods))
	for i := range methods {
		out = append(out, summarizeMethod(&methods[i]))
	}
	return out, nil
}

// AddLocal attaches a username/password method to the account.
func (s *MethodService) AddLocal(
	ctx context.Context,
	accountID, username, password string,
) (*LoginMethodSummary, error) {
	method, err := s.linker.AddLocalLoginMethod(accountID, username, password, s.hasher)
	if err != nil {
		return nil, err
	}
	summary := summarizeMethod(method)
	return &summary, nil
}

// Remove deletes a method, subject to the linker's invariants.
func (s *MethodService) Remove(ctx context.Context, accountID, methodID string) error {
	return s.linker.RemoveLoginMethod(accountID, methodID)
}

// SetPrimary promotes a method to primary.
func (s *MethodService) SetPrimary(ctx context.Context, accountID, methodID string) error {
	return s.linker.SetPrimaryLoginMethod(accountID, methodID)
}

func summarizeMethod(m *models.LoginMethod) LoginMethodSummary {
	identifier := m.ProviderUsername
	if identifier == "" {
		identifier = m.ProviderEmail
	}
	if m.IsLocal() && m.LocalUsername != nil {
		identifier = *m.LocalUsername
	}
	return LoginMethodSummary{
		ID:         m.ID,
		Provider:   m.Provider.Slug(),
		Identifier: identifier,
		IsPrimary:  m.IsPrimary,
		IsVerified: m.IsVerified,
		LinkedAt:   m.LinkedAt,
		LastUsedAt: m.LastUsedAt,
	}
}
