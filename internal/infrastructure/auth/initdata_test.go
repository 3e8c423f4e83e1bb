package auth_test

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/auth"
)

const botToken = "123456:test-token"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func signedInitData(t *testing.T, v *auth.Verifier, authDate time.Time) string {
	t.Helper()

	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAH-test")
	values.Set("user", `{"id":42,"first_name":"Ali","username":"ali_cash"}`)

	return v.SignedInitData(values)
}

func TestVerifierAcceptsValidInitData(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	v := auth.NewVerifier(botToken, time.Hour).WithClock(fixedClock(now))

	caller, err := v.Verify(signedInitData(t, v, now.Add(-time.Minute)))
	require.NoError(t, err)

	assert.Equal(t, int64(42), caller.ID)
	assert.Equal(t, "ali_cash", caller.Username)
	assert.Equal(t, "Ali", caller.FirstName)
	assert.Equal(t, domain.AuthMethodSignedAssertion, caller.Method)
}

func TestVerifierKnownVector(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	v := auth.NewVerifier(botToken, 0).WithClock(fixedClock(now))

	const hash = "a57c36dc4a2f61640a3820ba138566033959783856099ae2f2c5efb63500b55a"

	values := url.Values{}
	values.Set("auth_date", "1700000000")
	values.Set("user_id", "7")
	assert.Equal(t, hash, v.Sign(values))

	caller, err := v.Verify("user_id=7&auth_date=1700000000&hash=" + hash)
	require.NoError(t, err)
	assert.Equal(t, int64(7), caller.ID)
}

func TestVerifierRejectsTampering(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	v := auth.NewVerifier(botToken, time.Hour).WithClock(fixedClock(now))
	data := signedInitData(t, v, now)

	parsed, err := url.ParseQuery(data)
	require.NoError(t, err)

	t.Run("changed user", func(t *testing.T) {
		tampered := url.Values{}
		for k, vs := range parsed {
			tampered[k] = vs
		}
		tampered.Set("user", `{"id":43,"first_name":"Ali","username":"ali_cash"}`)

		_, err := v.Verify(tampered.Encode())
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("flipped hash byte", func(t *testing.T) {
		hash := []byte(parsed.Get("hash"))
		if hash[0] == 'a' {
			hash[0] = 'b'
		} else {
			hash[0] = 'a'
		}

		tampered := url.Values{}
		for k, vs := range parsed {
			tampered[k] = vs
		}
		tampered.Set("hash", string(hash))

		_, err := v.Verify(tampered.Encode())
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("other bot token", func(t *testing.T) {
		other := auth.NewVerifier("999:other", time.Hour).WithClock(fixedClock(now))
		_, err := other.Verify(data)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("missing hash", func(t *testing.T) {
		stripped := url.Values{}
		for k, vs := range parsed {
			if k != "hash" {
				stripped[k] = vs
			}
		}

		_, err := v.Verify(stripped.Encode())
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})
}

func TestVerifierRejectsStaleAssertion(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	v := auth.NewVerifier(botToken, time.Hour).WithClock(fixedClock(now))

	_, err := v.Verify(signedInitData(t, v, now.Add(-2*time.Hour)))
	assert.ErrorIs(t, err, domain.ErrStaleAssertion)
}

func TestVerifierMissingIdentity(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	v := auth.NewVerifier(botToken, time.Hour).WithClock(fixedClock(now))

	_, err := v.Verify("")
	assert.ErrorIs(t, err, domain.ErrMissingIdentity)

	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(now.Unix(), 10))
	_, err = v.Verify(v.SignedInitData(values))
	assert.ErrorIs(t, err, domain.ErrMissingIdentity)
}

func TestVerifierRejectsCaseChangedHash(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	v := auth.NewVerifier(botToken, time.Hour).WithClock(fixedClock(now))

	parsed, err := url.ParseQuery(signedInitData(t, v, now))
	require.NoError(t, err)

	hash := []byte(parsed.Get("hash"))
	flipped := false
	for i, c := range hash {
		if c >= 'a' && c <= 'f' {
			hash[i] = c - 'a' + 'A'
			flipped = true
			break
		}
	}
	require.True(t, flipped, "signature has no hex letter to flip")
	parsed.Set("hash", string(hash))

	_, err = v.Verify(parsed.Encode())
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}
