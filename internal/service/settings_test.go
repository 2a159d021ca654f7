package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsService_NotificationEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(&memSettingsRepo{}, "default@example.com")

	got, err := svc.NotificationEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, "default@example.com", got)

	for _, bad := range []string{"", "not-an-email", "Durai <d@example.com>"} {
		_, err := svc.SetNotificationEmail(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidEmail, bad)
	}

	saved, err := svc.SetNotificationEmail(ctx, "  durai@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "durai@example.com", saved)

	got, err = svc.NotificationEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, "durai@example.com", got)
}

func TestSettingsService_ClaimNotificationEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(&memSettingsRepo{}, "default@example.com")

	claimed, err := svc.ClaimNotificationEmail(ctx, "first@example.com")
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = svc.ClaimNotificationEmail(ctx, "second@example.com")
	require.NoError(t, err)
	assert.False(t, claimed)

	got, err := svc.NotificationEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", got)

	_, err = NewSettingsService(&memSettingsRepo{}, "").ClaimNotificationEmail(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}
