package visgate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/visgate/visgate/api/pkg/provider"
	"github.com/visgate/visgate/api/pkg/types"
)

func TestExitCode(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		code int
	}{
		{
			name: "validation",
			err:  types.NewValidationError("RUNPOD_API_KEY is required"),
			code: 2,
		},
		{
			name: "provider failure",
			err:  types.NewAPIError(types.ErrorKindProvider, "listing endpoints: boom"),
			code: 3,
		},
		{
			name: "insufficient gpu",
			err:  types.NewInsufficientGPUError(28),
			code: 3,
		},
		{
			name: "capacity",
			err:  fmt.Errorf("saveEndpoint: %w", provider.ErrCapacity),
			code: 3,
		},
		{
			name: "timeout",
			err:  types.NewAPIError(types.ErrorKindTimeout, "deployment did not become ready"),
			code: 4,
		},
		{
			name: "anything else",
			err:  errors.New("flag parse failure"),
			code: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, exitCode(tc.err))
		})
	}
}
