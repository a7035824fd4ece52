package mines

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		params GameParams
		ok     bool
	}{
		{"expert", GameParams{30, 16, 99}, true},
		{"no mines", GameParams{1, 1, 0}, true},
		{"full 9x9", GameParams{9, 9, 72}, true},
		{"overfull 9x9", GameParams{9, 9, 73}, false},
		{"full strip", GameParams{5, 1, 2}, true},
		{"overfull strip", GameParams{5, 1, 3}, false},
		{"zero width", GameParams{0, 9, 0}, false},
		{"negative height", GameParams{9, -1, 0}, false},
		{"negative mines", GameParams{9, 9, -1}, false},
		{"largest board", GameParams{256, 256, 1}, true},
		{"too many cells", GameParams{257, 256, 1}, false},
		{"huge board", GameParams{100000, 100000, 1}, false},
		{"wrapping area", GameParams{1 << 30, 1 << 30, 0}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.params.Validate()
			if test.ok {
				assert.NoError(t, err)
				return
			}
			var ce *ConfigError
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestSeed(t *testing.T) {
	p := GameParams{30, 16, 99}
	assert.Equal(t, "30:16:99", p.Seed())

	parsed, err := ParseSeed(p.Seed())
	require.NoError(t, err)
	assert.Equal(t, p, *parsed)

	_, err = ParseSeed("30:16")
	assert.Error(t, err)
	_, err = ParseSeed("3:3:9")
	assert.Error(t, err)
}

func TestNeighbors(t *testing.T) {
	p := GameParams{Width: 4, Height: 3}

	assert.Equal(t, []int{1, 4, 5}, slices.Collect(p.neighbors(0)))
	assert.Equal(t, []int{0, 1, 2, 4, 6, 8, 9, 10}, slices.Collect(p.neighbors(5)))
	assert.Equal(t, []int{6, 7, 10}, slices.Collect(p.neighbors(11)))
}
