package usecase_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/workerpool"
	"github.com/iho/cashledger/internal/usecase/mocks"
)

var (
	allowed = &domain.VerifiedCaller{ID: 42, Method: domain.AuthMethodSignedAssertion}
	denied  = &domain.VerifiedCaller{ID: 7, Method: domain.AuthMethodSignedAssertion}
)

// passthroughRetrier runs the operation once.
func passthroughRetrier(ctrl *gomock.Controller) *mocks.MockRetrier {
	retrier := mocks.NewMockRetrier(ctrl)
	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, operation func() error) error {
			return operation()
		},
	).AnyTimes()
	return retrier
}

// whitelist allows only the allowed caller.
func whitelist(ctrl *gomock.Controller) *mocks.MockAuthorizer {
	authorizer := mocks.NewMockAuthorizer(ctrl)
	authorizer.EXPECT().Authorize(gomock.Any()).DoAndReturn(
		func(caller *domain.VerifiedCaller) error {
			if caller == nil {
				return domain.ErrMissingIdentity
			}
			if caller.ID != allowed.ID {
				return domain.ErrForbidden
			}
			return nil
		},
	).AnyTimes()
	return authorizer
}

func newPool(t *testing.T) *workerpool.Pool {
	t.Helper()
	return workerpool.New(4)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
