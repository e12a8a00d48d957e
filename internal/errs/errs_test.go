package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("question", "must not be empty")

	assert.True(t, IsInvalidInput(err))
	assert.False(t, IsPersistence(err))
	assert.Equal(t, "invalid input: question: must not be empty", err.Error())

	var target *InvalidInputError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &target))
	assert.Equal(t, "question", target.Field)
}

func TestPersistence(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, Persistence("write", "/tmp/x", nil))
	})

	t.Run("unwraps to underlying error", func(t *testing.T) {
		err := Persistence("read", "/data/a.txt", fs.ErrPermission)
		assert.True(t, IsPersistence(err))
		assert.ErrorIs(t, err, fs.ErrPermission)
		assert.Contains(t, err.Error(), "/data/a.txt")
	})
}

func TestReasoningError(t *testing.T) {
	tests := []struct {
		name string
		err  *ReasoningError
		want string
	}{
		{
			name: "with upstream status",
			err:  &ReasoningError{Status: 529, Message: "overloaded"},
			want: "reasoning: upstream status 529: overloaded",
		},
		{
			name: "transport failure",
			err:  &ReasoningError{Message: "connection refused"},
			want: "reasoning: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, IsReasoning(tt.err))
		})
	}
}

func TestMissingConfiguration(t *testing.T) {
	err := MissingConfiguration("reasoning.api_key", "REASONING_API_KEY")

	assert.True(t, IsMissingConfiguration(err))
	assert.Contains(t, err.Error(), "reasoning.api_key")
	assert.Contains(t, err.Error(), "REASONING_API_KEY")
}
