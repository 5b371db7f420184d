package grid

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/powersweep/internal/sweep"
)

func TestGenerate_LastParameterCyclesFastest(t *testing.T) {
	params := []sweep.Parameter{
		{Name: "A", Values: []string{"1", "2"}},
		{Name: "B", Values: []string{"x", "y", "z"}},
	}

	sets, err := Generate(params)
	require.NoError(t, err)

	want := []sweep.ParameterSet{
		{ID: 1, Values: []string{"1", "x"}},
		{ID: 2, Values: []string{"1", "y"}},
		{ID: 3, Values: []string{"1", "z"}},
		{ID: 4, Values: []string{"2", "x"}},
		{ID: 5, Values: []string{"2", "y"}},
		{ID: 6, Values: []string{"2", "z"}},
	}
	if diff := cmp.Diff(want, sets); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_CountAndUniqueness(t *testing.T) {
	sizes := [][]int{{1}, {3}, {2, 3}, {2, 1, 4}, {3, 3, 3, 2}}

	for _, sz := range sizes {
		t.Run(fmt.Sprint(sz), func(t *testing.T) {
			params := make([]sweep.Parameter, len(sz))
			want := 1
			for i, n := range sz {
				params[i].Name = fmt.Sprintf("P%d", i)
				for v := 0; v < n; v++ {
					params[i].Values = append(params[i].Values, fmt.Sprintf("v%d", v))
				}
				want *= n
			}

			sets, err := Generate(params)
			require.NoError(t, err)
			require.Len(t, sets, want)

			seen := make(map[string]bool, want)
			for i, s := range sets {
				assert.Equal(t, i+1, s.ID)
				key := fmt.Sprint(s.Values)
				assert.False(t, seen[key], "duplicate combination %s", key)
				seen[key] = true
			}
		})
	}
}

func TestGenerate_EmptyValues(t *testing.T) {
	_, err := Generate([]sweep.Parameter{
		{Name: "A", Values: []string{"1"}},
		{Name: "B"},
	})
	assert.ErrorIs(t, err, sweep.ErrValidation)

	_, err = Generate(nil)
	assert.ErrorIs(t, err, sweep.ErrValidation)
}

func TestAt_MatchesGenerate(t *testing.T) {
	params := []sweep.Parameter{
		{Name: "A", Values: []string{"1", "2", "3"}},
		{Name: "B", Values: []string{"const"}},
		{Name: "C", Values: []string{"x", "y"}},
		{Name: "D", Values: []string{"p", "q", "r", "s"}},
	}

	sets, err := Generate(params)
	require.NoError(t, err)

	for _, want := range sets {
		got, err := At(params, want.ID)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("At(%d) mismatch (-want +got):\n%s", want.ID, diff)
		}
	}

	_, err = At(params, 0)
	assert.ErrorIs(t, err, sweep.ErrValidation)
	_, err = At(params, len(sets)+1)
	assert.ErrorIs(t, err, sweep.ErrValidation)
}

func TestCount(t *testing.T) {
	n, err := Count([]sweep.Parameter{
		{Name: "A", Values: []string{"1", "2"}},
		{Name: "B", Values: []string{"x", "y", "z"}},
		{Name: "C", Values: []string{"80000"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}
