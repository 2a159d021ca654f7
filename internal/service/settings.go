package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"core_innovators/internal/repository"
)

const settingNotificationEmail = "notification_email"

var ErrInvalidEmail = errors.New("invalid email address")

// SettingsService stores user preferences.
type SettingsService struct {
	repo         repository.SettingsRepo
	defaultEmail string
}

func NewSettingsService(repo repository.SettingsRepo, defaultEmail string) *SettingsService {
	return &SettingsService{repo: repo, defaultEmail: defaultEmail}
}

// NotificationEmail returns the saved alert address or the configured default.
func (s *SettingsService) NotificationEmail(ctx context.Context) (string, error) {
	v, ok, err := s.repo.Get(ctx, settingNotificationEmail)
	if err != nil {
		return "", fmt.Errorf("load notification email: %w", err)
	}
	if !ok || v == "" {
		return s.defaultEmail, nil
	}
	return v, nil
}

// SetNotificationEmail validates and saves the alert address.
func (s *SettingsService) SetNotificationEmail(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	if err := s.repo.Set(ctx, settingNotificationEmail, email); err != nil {
		return "", fmt.Errorf("save notification email: %w", err)
	}
	return email, nil
}

// ClaimNotificationEmail saves email as the alert address only when no
// address has been saved yet. It reports whether it did.
func (s *SettingsService) ClaimNotificationEmail(ctx context.Context, email string) (bool, error) {
	v, ok, err := s.repo.Get(ctx, settingNotificationEmail)
	if err != nil {
		return false, fmt.Errorf("load notification email: %w", err)
	}
	if ok && v != "" {
		return false, nil
	}
	if _, err := s.SetNotificationEmail(ctx, email); err != nil {
		return false, err
	}
	return true, nil
}

// validEmail accepts a bare address such as "owner@example.com".
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
