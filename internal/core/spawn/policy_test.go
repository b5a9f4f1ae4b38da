package spawn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/suika/internal/core/kinds"
)

type fixedSource struct{ values []int }

func (f *fixedSource) IntN(n int) int {
	v := f.values[0] % n
	f.values = f.values[1:]
	return v
}

func TestPolicy_UniformOverSpawnable(t *testing.T) {
	const trials = 10_000
	table := kinds.Default()
	p := NewSeededPolicy(table, "uniformity")

	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		k := p.Pick()
		require.True(t, table.IsSpawnable(k), "picked excluded kind %s", k)
		counts[k.Name]++
	}

	for _, name := range []string{kinds.Watermelon, kinds.Melon, kinds.Pineapple, kinds.Peach, kinds.Pear, kinds.Apple} {
		assert.Zero(t, counts[name], name)
	}

	// expected 2000 each; sd is 40, allow 5 sd
	require.Len(t, counts, 5)
	for name, n := range counts {
		assert.InDelta(t, trials/5, n, 200, "kind %s", name)
	}
}

func TestPolicy_SameSeedSameSequence(t *testing.T) {
	table := kinds.Default()
	p1 := NewSeededPolicy(table, "session-a")
	p2 := NewSeededPolicy(table, "session-a")
	p3 := NewSeededPolicy(table, "session-b")

	var s1, s2, s3 [32]string
	for i := range s1 {
		s1[i] = p1.Pick().Name
		s2[i] = p2.Pick().Name
		s3[i] = p3.Pick().Name
	}
	assert.Equal(t, s1, s2)
	assert.NotEqual(t, s1, s3)
}

func TestPolicy_UsesSource(t *testing.T) {
	table := kinds.Default()
	p := NewPolicy(table, &fixedSource{values: []int{0, 4, 2}})
	assert.Equal(t, kinds.Cherry, p.Pick().Name)
	assert.Equal(t, kinds.Kaki, p.Pick().Name)
	assert.Equal(t, kinds.Grape, p.Pick().Name)
	assert.Len(t, p.Candidates(), 5)
}

func TestPolicy_DefaultSource(t *testing.T) {
	table := kinds.Default()
	p := NewPolicy(table, nil)
	for i := 0; i < 100; i++ {
		require.True(t, table.IsSpawnable(p.Pick()))
	}
}
