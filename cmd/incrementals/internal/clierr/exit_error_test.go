package clierr

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jenkinsci/incrementals-tools/errors"
)

func TestExitCodeOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, 0},
		{"plain", stderrors.New("boom"), ExitFailure},
		{"explicit", New(ExitUsage, "bad flag"), ExitUsage},
		{"explicit zero", New(0, "oops"), 1},
		{"wrapped explicit", fmt.Errorf("outer: %w", Newf(7, "code %d", 7)), 7},
		{"config", errors.New(errors.CodeInvalidConfig, "bad"), ExitUsage},
		{"dirty", errors.New(errors.CodeDirtyCheckout, "dirty"), ExitDirtyCheckout},
		{"clash", errors.Wrap(errors.New(errors.CodeClash, "clash"), errors.CodeClash, "failed"), ExitClash},
		{"timeout", errors.New(errors.CodeTimeout, "slow"), ExitTransport},
		{"rate limit", errors.New(errors.CodeRateLimit, "slow down"), ExitTransport},
		{"malformed", errors.New(errors.CodeInvalidInput, "bad scm"), ExitMalformed},
		{"not found", errors.New(errors.CodeNotFound, "gone"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExitCodeOf(tt.err))
		})
	}
}

func TestExitError(t *testing.T) {
	cause := stderrors.New("cause")
	err := Wrap(ExitClash, "failed", cause)

	assert.Equal(t, "failed: cause", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", Wrap(3, "plain", nil).Error())
}
