package settlement

import (
	"context"
	"testing"
	"time"

	"marketplace-app/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignature(t *testing.T) {
	sig, err := parseSignature("t=1700000000, v1=abc,te=def,v0=zzz")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), sig.timestamp.Unix())
	assert.Equal(t, []string{"abc"}, sig.live)
	assert.Equal(t, []string{"def"}, sig.test)

	for _, h := range []string{"v1=abc", "t=1700000000", "t=soon,v1=abc", ""} {
		_, err := parseSignature(h)
		assert.ErrorIs(t, err, apperr.ErrSignature, h)
	}
}

func TestSignatureRejections(t *testing.T) {
	body := payload("checkout.session.completed", "cs_1")
	cases := map[string]string{
		"missing header": "",
		"wrong secret":   Sign("other", body, now, false),
		"stale":          Sign(secret, body, now.Add(-time.Hour), false),
		"future":         Sign(secret, body, now.Add(time.Hour), false),
		"garbage":        "t=1,v1=zz",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.handler.Handle(context.Background(), header, body)
			assert.ErrorIs(t, err, apperr.ErrSignature)
		})
	}
}

func TestSignatureCoversBody(t *testing.T) {
	f := newFixture(t)
	body := payload("checkout.session.completed", "cs_1")
	header := Sign(secret, body, now, false)

	_, err := f.handler.Handle(context.Background(), header, payload("checkout.session.completed", "cs_2"))
	assert.ErrorIs(t, err, apperr.ErrSignature)
}

func TestTestModeSignatures(t *testing.T) {
	body := payload("checkout.session.expired", "cs_1")
	header := Sign(secret, body, now, true)

	f := newFixture(t)
	res, err := f.handler.Handle(context.Background(), header, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)

	f.handler.cfg.AllowTestSignatures = false
	_, err = f.handler.Handle(context.Background(), header, body)
	assert.ErrorIs(t, err, apperr.ErrSignature)
}

func TestMissingSecretRejectsEverything(t *testing.T) {
	f := newFixture(t)
	f.handler.cfg.Secret = ""
	body := payload("checkout.session.completed", "cs_1")
	_, err := f.handler.Handle(context.Background(), Sign("", body, now, false), body)
	assert.ErrorIs(t, err, apperr.ErrSignature)
}
