package services

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncentivePicker_DistinctFromCatalog(t *testing.T) {
	require.Len(t, EVIncentiveCatalog, 12)
	p := NewIncentivePicker(rand.NewPCG(7, 11))
	for i := 0; i < 200; i++ {
		got := p.Pick()
		require.Len(t, got, 3)
		seen := map[string]bool{}
		for _, inc := range got {
			assert.Contains(t, EVIncentiveCatalog, inc)
			assert.False(t, seen[inc], "duplicate incentive %q", inc)
			seen[inc] = true
		}
	}
}

func TestIncentivePicker_SeededIsReproducible(t *testing.T) {
	a := NewIncentivePicker(rand.NewPCG(3, 5))
	b := NewIncentivePicker(rand.NewPCG(3, 5))
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Pick(), b.Pick())
	}
}

func TestIncentivePicker_CoversCatalog(t *testing.T) {
	p := NewIncentivePicker(nil)
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		for _, inc := range p.Pick() {
			seen[inc] = true
		}
	}
	assert.Len(t, seen, len(EVIncentiveCatalog))
}
