package reasoning

import (
	"context"

	"github.com/fyrsmithlabs/recall/internal/errs"
)

// APIKeyEnvVar is the environment variable that supplies the API key.
const APIKeyEnvVar = "REASONING_API_KEY"

// Unconfigured is the Reasoner used when no API key was provided. Every call
// fails with *errs.MissingConfigurationError.
type Unconfigured struct{}

// Complete always fails.
func (Unconfigured) Complete(context.Context, Request) (*Reply, error) {
	return nil, errs.MissingConfiguration("reasoning.api_key", APIKeyEnvVar)
}

var _ Reasoner = Unconfigured{}

// Ready returns the MissingConfigurationError r would fail with, or nil when
// r can serve requests. Callers use it to fail before doing side-effecting
// work.
func Ready(r Reasoner) error {
	if _, ok := r.(Unconfigured); ok {
		return errs.MissingConfiguration("reasoning.api_key", APIKeyEnvVar)
	}
	return nil
}
