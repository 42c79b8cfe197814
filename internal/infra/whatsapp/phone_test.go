package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"3001234567":             "+573001234567",
		"+57 300 123 4567":       "+573001234567",
		"whatsapp:+573001234567": "+573001234567",
		" 300-123-4567 ":         "+573001234567",
	}
	for in, want := range cases {
		got, err := NormalizePhone(in, "CO")
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNormalizePhone_Invalid(t *testing.T) {
	for _, in := range []string{"", "whatsapp:", "abc", "123"} {
		_, err := NormalizePhone(in, "")
		assert.ErrorIs(t, err, ErrInvalidPhone, in)
	}
}
