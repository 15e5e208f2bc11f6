package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+998901234567", normalizePhone("+998 90 123-45-67"))
	assert.Equal(t, "998901234567", normalizePhone("998 (90) 123 45 67"))
	assert.Equal(t, "901234567", normalizePhone("90-123-45-67"))
	assert.Equal(t, "", normalizePhone(""))
	// a + anywhere but the front is formatting noise
	assert.Equal(t, "99890", normalizePhone("998+90"))
}

func TestPhoneVariants(t *testing.T) {
	variants := phoneVariants("+998901234567")
	assert.Equal(t, []string{"+998901234567", "998901234567", "901234567"}, variants)
}

func TestPhoneVariantsAddsPlusForm(t *testing.T) {
	variants := phoneVariants("998901234567")
	assert.Contains(t, variants, "998901234567")
	assert.Contains(t, variants, "+998901234567")
	assert.Contains(t, variants, "901234567")
}

func TestPhoneVariantsShortNumber(t *testing.T) {
	variants := phoneVariants("12345")
	assert.Equal(t, []string{"12345"}, variants)
}
