package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenSortRatio(t *testing.T) {
	assert.Equal(t, 100, TokenSortRatio("caffeine + paracetamol", "paracetamol + caffeine"))
	assert.Equal(t, 100, TokenSortRatio("Paracetamol(500mg)", "paracetamol 500mg"))
	assert.Equal(t, 0, TokenSortRatio("", "paracetamol"))
	assert.Equal(t, 0, TokenSortRatio("+++", "paracetamol"))
	assert.Equal(t, 50, TokenSortRatio("ab", "ac"))

	near := TokenSortRatio("paracetamol(500mg)", "paracetamol(650mg)")
	assert.Less(t, near, 98)
	assert.Greater(t, near, 80)
}

func TestTokenSortRatio_DropsNonASCII(t *testing.T) {
	assert.Equal(t, 100, TokenSortRatio("Paracétamol 500mg", "paractamol 500mg"))
	assert.Equal(t, 100, TokenSortRatio("Vitamin D3 1000 IU", "vitamin d3 1000iu"))
	assert.Equal(t, 0, TokenSortRatio("парацетамол", "парацетамол"))
}

func TestTokenSortRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"amoxicillin 500mg", "amoxicillin + clavulanic acid"},
		{"titanium plate 6 hole", "plate titanium 8 hole"},
	}
	for _, p := range pairs {
		assert.Equal(t, TokenSortRatio(p[0], p[1]), TokenSortRatio(p[1], p[0]))
	}
}
