package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	// All common ways the same number shows up in customer records.
	assert.Equal(t, "5551234567", NormalizePhone("5551234567"))
	assert.Equal(t, "5551234567", NormalizePhone("05551234567"))
	assert.Equal(t, "5551234567", NormalizePhone("0555 123 45 67"))
	assert.Equal(t, "5551234567", NormalizePhone("555-123-4567"))
	assert.Equal(t, "5551234567", NormalizePhone("905551234567"))
	assert.Equal(t, "5551234567", NormalizePhone("+90 (555) 123 45 67"))
}

func TestNormalizePhone_ShortInput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1234567", NormalizePhone("123-4567"))
	assert.Equal(t, "", NormalizePhone(""))
	assert.Equal(t, "", NormalizePhone("no digits here"))
}

func TestValidatePhone(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidatePhone("+905551234567"))
	assert.True(t, ValidatePhone("05551234567"))
	assert.True(t, ValidatePhone("0555 123 45 67"))
	assert.True(t, ValidatePhone("(555) 123-4567"))

	assert.False(t, ValidatePhone(""))
	assert.False(t, ValidatePhone("12345"))
	assert.False(t, ValidatePhone("555123456789012345"))
	assert.False(t, ValidatePhone("call me maybe"))
}
