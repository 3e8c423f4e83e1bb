package auth

import "github.com/iho/cashledger/internal/domain"

// Policy is a fixed whitelist of Telegram ids. An empty whitelist admits
// nobody.
type Policy struct {
	allowed map[int64]struct{}
}

// NewPolicy creates a Policy from ids.
func NewPolicy(ids []int64) *Policy {
	allowed := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	return &Policy{allowed: allowed}
}

// Authorize implements usecase.Authorizer.
func (p *Policy) Authorize(caller *domain.VerifiedCaller) error {
	if caller == nil {
		return domain.ErrMissingIdentity
	}
	if _, ok := p.allowed[caller.ID]; !ok {
		return domain.ErrForbidden
	}
	return nil
}

// Size returns the number of whitelisted ids.
func (p *Policy) Size() int {
	return len(p.allowed)
}
