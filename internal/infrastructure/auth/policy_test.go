package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/auth"
)

func TestPolicyAuthorize(t *testing.T) {
	t.Parallel()

	policy := auth.NewPolicy([]int64{42, 7})

	assert.NoError(t, policy.Authorize(&domain.VerifiedCaller{ID: 42}))
	assert.ErrorIs(t, policy.Authorize(&domain.VerifiedCaller{ID: 43}), domain.ErrForbidden)
	assert.ErrorIs(t, policy.Authorize(nil), domain.ErrMissingIdentity)
	assert.Equal(t, 2, policy.Size())
}

func TestPolicyEmptyWhitelistDeniesEveryone(t *testing.T) {
	t.Parallel()

	policy := auth.NewPolicy(nil)

	err := policy.Authorize(&domain.VerifiedCaller{ID: 42, Method: domain.AuthMethodDebug})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
