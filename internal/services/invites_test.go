package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewInviteCodeShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := newInviteCode()
		require.NoError(t, err)
		assert.Len(t, code, 13)
		assert.Regexp(t, `^eit[0-9a-f]{10}$`, code)
		seen[code] = true
	}
	// 50 draws from 16^10 values colliding would point at a broken source
	assert.Len(t, seen, 50)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
	assert.True(t, isUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "idx_parent_invites_code" (SQLSTATE 23505)`)))
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
}
