package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeDisabled, CodeOf(ErrMessagingDisabled))
	assert.Equal(t, CodeNotFound, CodeOf(ErrConversationNotFound))
	assert.Equal(t, CodeUnknown, CodeOf(stderrors.New("plain")))
	assert.Equal(t, CodeUnknown, CodeOf(nil))
}

func TestIsMatchesByCode(t *testing.T) {
	wrapped := Wrap(CodeNotFound, "conversation 5", stderrors.New("sql: no rows"))
	assert.True(t, stderrors.Is(wrapped, ErrConversationNotFound))
	assert.False(t, stderrors.Is(wrapped, ErrMessagingDisabled))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Internal("storage failure", cause)
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, HasCode(err, CodeInternal))
}
