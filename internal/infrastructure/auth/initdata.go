package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iho/cashledger/internal/domain"
)

// webAppKey derives the signing secret from the bot token.
const webAppKey = "WebAppData"

// Verifier checks Telegram Mini App initData signed with a bot token.
type Verifier struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewVerifier creates a Verifier. Assertions older than maxAge are stale.
func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	mac := hmac.New(sha256.New, []byte(webAppKey))
	mac.Write([]byte(botToken))

	return &Verifier{
		secret: mac.Sum(nil),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// WithClock sets the clock used for freshness checks.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

type telegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// Verify checks the signature and freshness of initData and returns the
// caller it names.
func (v *Verifier) Verify(initData string) (*domain.VerifiedCaller, error) {
	if strings.TrimSpace(initData) == "" {
		return nil, domain.ErrMissingIdentity
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, domain.ErrInvalidSignature
	}

	received := values.Get("hash")
	if received == "" {
		return nil, domain.ErrInvalidSignature
	}
	values.Del("hash")

	expected := v.Sign(values)
	if !hmac.Equal([]byte(expected), []byte(received)) {
		return nil, domain.ErrInvalidSignature
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, domain.ErrStaleAssertion
	}
	if v.maxAge > 0 && v.now().Sub(time.Unix(authDate, 0)) > v.maxAge {
		return nil, domain.ErrStaleAssertion
	}

	caller := &domain.VerifiedCaller{Method: domain.AuthMethodSignedAssertion}

	if raw := values.Get("user"); raw != "" {
		var user telegramUser
		if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == 0 {
			return nil, domain.ErrMissingIdentity
		}
		caller.ID = user.ID
		caller.Username = user.Username
		caller.FirstName = user.FirstName
		return caller, nil
	}

	id, err := strconv.ParseInt(values.Get("user_id"), 10, 64)
	if err != nil || id == 0 {
		return nil, domain.ErrMissingIdentity
	}
	caller.ID = id

	return caller, nil
}

// Sign returns the hex signature of values without their hash field. It is
// what a bot-token holder attaches as hash.
func (v *Verifier) Sign(values url.Values) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(dataCheckString(values)))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignedInitData encodes values with a valid hash appended.
func (v *Verifier) SignedInitData(values url.Values) string {
	signed := url.Values{}
	for k, vs := range values {
		if k == "hash" {
			continue
		}
		signed[k] = vs
	}
	signed.Set("hash", v.Sign(signed))
	return signed.Encode()
}

func dataCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		vs := values[k]
		lines = append(lines, k+"="+vs[len(vs)-1])
	}

	return strings.Join(lines, "\n")
}
