package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alnumPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

func TestGenerateRandomString(t *testing.T) {
	t.Parallel()

	s := GenerateRandomString(8)
	assert.Len(t, s, 8)
	assert.Regexp(t, alnumPattern, s)

	assert.Empty(t, GenerateRandomString(0))
}

func TestNewMerchantOrderID(t *testing.T) {
	t.Parallel()

	id := NewMerchantOrderID()
	assert.Len(t, id, 22, "14-digit timestamp plus 8 random characters")
	assert.Regexp(t, alnumPattern, id)
}

func TestNewMerchantOrderID_NoCollisionsInBatch(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewMerchantOrderID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate merchant order id %q", id)
		seen[id] = struct{}{}
	}
}
