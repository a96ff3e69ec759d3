package dice_test

import (
	"errors"
	"testing"

	"mythweaver-server/shared/dice"
	"mythweaver-server/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("valid notations", func(t *testing.T) {
		cases := map[string]dice.Spec{
			"1d20":    {Count: 1, Sides: 20},
			"2d6+3":   {Count: 2, Sides: 6, Modifier: 3},
			"10d8-1":  {Count: 10, Sides: 8, Modifier: -1},
			"4d6+2":   {Count: 4, Sides: 6, Modifier: 2},
			" 1d4 ":   {Count: 1, Sides: 4},
			"1D12+0":  {Count: 1, Sides: 12},
			"100d100": {Count: 100, Sides: 100},
		}
		for notation, want := range cases {
			got, err := dice.Parse(notation)
			require.NoError(t, err, "notation %q", notation)
			assert.Equal(t, want, got, "notation %q", notation)
		}
	})

	t.Run("malformed notations are rejected", func(t *testing.T) {
		malformed := []string{
			"", "abc", "d6", "2d", "0d6", "2d0", "-1d6", "1d6*2",
			"2d6+", "2d6 + 3x", "1d6+1d4", "101d6", "1d1001",
		}
		for _, notation := range malformed {
			_, err := dice.Parse(notation)
			assert.True(t, errors.Is(err, models.ErrInvalidDiceNotation), "notation %q must be rejected, got %v", notation, err)
		}
	})
}

func TestRoll(t *testing.T) {
	t.Run("deterministic roller", func(t *testing.T) {
		queue := []int{4, 2}
		roller := func(sides int) int {
			assert.Equal(t, 6, sides)
			v := queue[0]
			queue = queue[1:]
			return v
		}

		res, err := dice.RollNotation("2d6+3", roller)
		require.NoError(t, err)
		assert.Equal(t, []int{4, 2}, res.Rolls)
		assert.Equal(t, 3, res.Modifier)
		assert.Equal(t, 9, res.Total)
	})

	t.Run("crypto roller stays in range", func(t *testing.T) {
		spec, err := dice.Parse("2d6+3")
		require.NoError(t, err)

		for i := 0; i < 50; i++ {
			res := spec.Roll(nil)
			require.Len(t, res.Rolls, 2)
			sum := res.Modifier
			for _, v := range res.Rolls {
				assert.GreaterOrEqual(t, v, 1)
				assert.LessOrEqual(t, v, 6)
				sum += v
			}
			assert.Equal(t, sum, res.Total)
		}
	})

	t.Run("negative modifier can drop the total below the roll sum", func(t *testing.T) {
		res, err := dice.RollNotation("1d8-1", func(int) int { return 1 })
		require.NoError(t, err)
		assert.Equal(t, 0, res.Total)
	})
}
