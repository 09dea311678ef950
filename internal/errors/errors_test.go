package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		typ   ErrorType
		code  int
		check func(error) bool
	}{
		{name: "not found", err: NotFound("missing"), typ: ErrorTypeNotFound, code: http.StatusNotFound, check: IsNotFound},
		{name: "validation", err: Validation("bad input", nil), typ: ErrorTypeValidation, code: http.StatusBadRequest, check: IsValidation},
		{name: "conflict", err: Conflict("head moved"), typ: ErrorTypeConflict, code: http.StatusConflict, check: IsConflict},
		{name: "hash mismatch", err: HashMismatch("corrupt", nil), typ: ErrorTypeHashMismatch, code: http.StatusInternalServerError, check: IsHashMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.err.Message, tt.err.Error())
		})
	}
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("committing: %w", Conflict("head moved"))
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(fmt.Errorf("plain")))
}
