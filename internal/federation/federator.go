// Package federation verifies third-party identity assertions. Every
// provider-side failure collapses to the single invalid-assertion error so
// callers cannot be used as a verification oracle.
package federation

import (
	"context"

	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

// Verifier checks one provider's assertion tokens.
type Verifier interface {
	Verify(ctx context.Context, assertion string) error
}

// Federator dispatches assertions to provider verifiers by name.
type Federator struct {
	providers map[string]Verifier
	logger    logger.Logger
}

func NewFederator(log logger.Logger) *Federator {
	return &Federator{
		providers: make(map[string]Verifier),
		logger:    log.WithComponent("IdentityFederator"),
	}
}

// Register adds a provider verifier under its name.
func (f *Federator) Register(name string, v Verifier) {
	f.providers[name] = v
}

// Verify checks the assertion with the named provider. Unknown providers
// and failed verifications are indistinguishable to the caller.
func (f *Federator) Verify(ctx context.Context, provider, assertion string) error {
	v, ok := f.providers[provider]
	if !ok {
		f.logger.Warn(ctx, "unknown identity provider", logger.String("provider", provider))
		return errors.ErrInvalidAssertion
	}
	if err := v.Verify(ctx, assertion); err != nil {
		f.logger.Warn(ctx, "assertion verification failed",
			logger.String("provider", provider), logger.Err(err))
		return errors.ErrInvalidAssertion
	}
	return nil
}
