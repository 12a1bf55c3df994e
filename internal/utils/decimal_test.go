package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12.50", "12.5"},
		{" 1,234.50 ", "1234.5"},
		{"₹ 99", "99"},
		{"Rs. 12.75", "12.75"},
		{"(15.00)", "-15"},
		{"1 000", "1000"},
		{"-3", "-3"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			d, err := ParseDecimal(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.String())
		})
	}
}

func TestParseDecimal_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "n/a", "-", "1.2.3"} {
		_, err := ParseDecimal(in)
		assert.Error(t, err, in)
	}
}
