package settlement

import (
	"crypto/hmac"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"marketplace-app/internal/apperr"

	"github.com/stripe/stripe-go/v75/webhook"
)

type signature struct {
	timestamp time.Time
	live      []string
	test      []string
}

// parseSignature reads a "t=<unix>,v1=<hex>[,te=<hex>]" header. Unknown
// keys are skipped.
func parseSignature(header string) (signature, error) {
	var (
		sig   signature
		hasTS bool
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || v == "" {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return sig, apperr.Signature("invalid signature timestamp")
			}
			sig.timestamp = time.Unix(ts, 0)
			hasTS = true
		case "v1":
			sig.live = append(sig.live, v)
		case "te":
			sig.test = append(sig.test, v)
		}
	}
	if !hasTS {
		return sig, apperr.Signature("signature header has no timestamp")
	}
	if len(sig.live) == 0 && len(sig.test) == 0 {
		return sig, apperr.Signature("signature header has no signature")
	}
	return sig, nil
}

// Sign returns the header value a provider would send for body at t. The
// test-mode key is used when test is set.
func Sign(secret string, body []byte, t time.Time, test bool) string {
	key := "v1"
	if test {
		key = "te"
	}
	mac := hex.EncodeToString(webhook.ComputeSignature(t, body, secret))
	return "t=" + strconv.FormatInt(t.Unix(), 10) + "," + key + "=" + mac
}

func (h *Handler) verify(header string, body []byte) error {
	if h.cfg.Secret == "" {
		return apperr.Signature("webhook secret is not configured")
	}
	if header == "" {
		return apperr.Signature("missing signature header")
	}
	sig, err := parseSignature(header)
	if err != nil {
		return err
	}
	if h.cfg.Tolerance > 0 {
		age := h.now().Sub(sig.timestamp)
		if age > h.cfg.Tolerance || age < -h.cfg.Tolerance {
			return apperr.Signature("signature timestamp outside tolerance")
		}
	}

	candidates := sig.live
	if h.cfg.AllowTestSignatures {
		candidates = append(candidates, sig.test...)
	}
	expected := webhook.ComputeSignature(sig.timestamp, body, h.cfg.Secret)
	for _, c := range candidates {
		got, err := hex.DecodeString(c)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, got) {
			return nil
		}
	}
	return apperr.Signature("signature mismatch")
}
