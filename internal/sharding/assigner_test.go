package sharding

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vdt/internal/domain"
)

func makeApp(name string, tests map[string]int, order ...string) domain.ShardApp {
	app := domain.ShardApp{Name: name}
	for _, t := range order {
		test := domain.ShardTest{Name: t}
		for i := 0; i < tests[t]; i++ {
			test.Cases = append(test.Cases, domain.Case{Name: fmt.Sprintf("%s#case%d", t, i)})
		}
		app.Tests = append(app.Tests, test)
	}
	return app
}

func allCases(apps []domain.ShardApp) []string {
	var names []string
	for _, app := range apps {
		for _, test := range app.Tests {
			for _, c := range test.Cases {
				names = append(names, c.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func shardCases(shards []domain.Shard) []string {
	var names []string
	for _, s := range shards {
		names = append(names, s.Cases()...)
	}
	sort.Strings(names)
	return names
}

func TestCalculateShards_Example(t *testing.T) {
	var apps []domain.ShardApp
	for i := 0; i < 5; i++ {
		test := fmt.Sprintf("app%d-androidTest.apk", i)
		apps = append(apps, makeApp(fmt.Sprintf("app%d.apk", i), map[string]int{test: 3}, test))
	}

	shards, err := CalculateShards(apps, 3)
	require.NoError(t, err)
	require.Len(t, shards, 3)
	assert.Equal(t, []int{5, 5, 5}, Stats(shards))
	assert.Empty(t, cmp.Diff(allCases(apps), shardCases(shards)))
}

func TestCalculateShards_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iteration := 0; iteration < 200; iteration++ {
		var apps []domain.ShardApp
		largest := 0
		for a := 0; a < 1+rng.Intn(5); a++ {
			sizes := map[string]int{}
			var order []string
			for tst := 0; tst < rng.Intn(4); tst++ {
				name := fmt.Sprintf("a%d-t%d-androidTest.apk", a, tst)
				sizes[name] = rng.Intn(12)
				largest = max(largest, sizes[name])
				order = append(order, name)
			}
			apps = append(apps, makeApp(fmt.Sprintf("a%d.apk", a), sizes, order...))
		}
		maxShards := 1 + rng.Intn(6)

		shards, err := CalculateShards(apps, maxShards)
		require.NoError(t, err)

		t.Run(fmt.Sprintf("iteration %d", iteration), func(t *testing.T) {
			expected := allCases(apps)
			assert.LessOrEqual(t, len(shards), maxShards)
			assert.Equal(t, len(expected) == 0, len(shards) == 0)
			assert.Empty(t, cmp.Diff(expected, shardCases(shards)), "cases lost or duplicated")

			counts := Stats(shards)
			if len(counts) > 0 {
				sort.Ints(counts)
				assert.Greater(t, counts[0], 0, "empty shard")
				assert.LessOrEqual(t, counts[len(counts)-1]-counts[0], largest)
			}
		})
	}
}

func TestCalculateShards_FewerTestsThanShards(t *testing.T) {
	apps := []domain.ShardApp{
		makeApp("app.apk", map[string]int{"a-androidTest.apk": 4, "b-androidTest.apk": 2, "c-androidTest.apk": 0},
			"a-androidTest.apk", "b-androidTest.apk", "c-androidTest.apk"),
	}

	shards, err := CalculateShards(apps, 10)
	require.NoError(t, err)
	assert.Len(t, shards, 2)
	assert.Equal(t, []int{3, 3}, Stats(shards))
}

func TestCalculateShards_KeepsOwnershipAndOrder(t *testing.T) {
	apps := []domain.ShardApp{
		makeApp("one.apk", map[string]int{"one-androidTest.apk": 1}, "one-androidTest.apk"),
		makeApp("two.apk", map[string]int{"two-androidTest.apk": 1}, "two-androidTest.apk"),
	}

	shards, err := CalculateShards(apps, 1)
	require.NoError(t, err)

	expected := []domain.Shard{{
		{Name: "one.apk", Tests: []domain.ShardTest{{Name: "one-androidTest.apk", Cases: []domain.Case{{Name: "one-androidTest.apk#case0"}}}}},
		{Name: "two.apk", Tests: []domain.ShardTest{{Name: "two-androidTest.apk", Cases: []domain.Case{{Name: "two-androidTest.apk#case0"}}}}},
	}}
	if diff := cmp.Diff(expected, shards); diff != "" {
		t.Errorf("unexpected shards (-want +got):\n%s", diff)
	}
}

func TestCalculateShards_Deterministic(t *testing.T) {
	apps := []domain.ShardApp{
		makeApp("x.apk", map[string]int{"x1-androidTest.apk": 7, "x2-androidTest.apk": 3}, "x1-androidTest.apk", "x2-androidTest.apk"),
		makeApp("y.apk", map[string]int{"y1-androidTest.apk": 5}, "y1-androidTest.apk"),
	}

	first, err := CalculateShards(apps, 3)
	require.NoError(t, err)
	second, err := CalculateShards(apps, 3)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(first, second))
}

func TestCalculateShards_Empty(t *testing.T) {
	shards, err := CalculateShards(nil, 3)
	require.NoError(t, err)
	assert.Empty(t, shards)
}

func TestCalculateShards_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		apps      []domain.ShardApp
		maxShards int
	}{
		{name: "zero shards", maxShards: 0},
		{name: "negative shards", maxShards: -1},
		{
			name:      "duplicate test path",
			apps:      []domain.ShardApp{makeApp("a.apk", map[string]int{"a.apk": 1}, "a.apk")},
			maxShards: 1,
		},
		{
			name:      "empty app path",
			apps:      []domain.ShardApp{{Name: ""}},
			maxShards: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateShards(tt.apps, tt.maxShards)
			var cfgErr *domain.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
		})
	}
}
