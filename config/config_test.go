package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_URL", "postgres://localhost/marketplace")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENVIRONMENT", "development")
}

func TestLoadDefaults(t *testing.T) {
	baseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.AllowTestSignatures)
	assert.Equal(t, "0.15", cfg.PlatformFeeRate.String())
	assert.Equal(t, []string{"checkout.session.completed", "link.payment.paid"}, cfg.PaymentSucceededEvents)
}

func TestTestSignaturesOffInProduction(t *testing.T) {
	baseEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "whsec_live")
	t.Setenv("STRIPE_SECRET_KEY", "sk_live")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.AllowTestSignatures)

	t.Setenv("PAYMENT_ALLOW_TEST_SIGNATURES", "true")
	_, err = Load()
	assert.ErrorContains(t, err, "PAYMENT_ALLOW_TEST_SIGNATURES")
}

func TestLoadRejectsBadFeeRate(t *testing.T) {
	baseEnv(t)
	t.Setenv("PLATFORM_FEE_RATE", "1.5")

	_, err := Load()
	assert.ErrorContains(t, err, "PLATFORM_FEE_RATE")
}
