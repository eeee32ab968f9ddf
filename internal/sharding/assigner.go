package sharding

import (
	"fmt"
	"sort"

	"vdt/internal/domain"
)

// Assigner distributes test cases across shards
type Assigner interface {
	Assign(apps []domain.ShardApp, maxShards int) ([]domain.Shard, error)
}

// LargestFirst balances shards by case count using greedy largest-first bin packing
type LargestFirst struct{}

// NewLargestFirst creates a new LargestFirst assigner
func NewLargestFirst() *LargestFirst {
	return &LargestFirst{}
}

// Assign implements Assigner
func (LargestFirst) Assign(apps []domain.ShardApp, maxShards int) ([]domain.Shard, error) {
	return CalculateShards(apps, maxShards)
}

// unit is one test apk, the piece of work packed onto shards
type unit struct {
	app   int // Index of the owning app in the input
	test  int // Index of the test within the app
	cases int
}

// chunk is a contiguous range of one unit's cases placed on a shard
type chunk struct {
	unit
	from, to int
}

// CalculateShards splits apps into at most maxShards shards minimizing the largest
// shard. The shard count is capped by the number of tests with cases. Tests are
// packed largest first onto the least loaded shard (lowest index on ties); a test
// is split only where it would push a shard past ceil(total/count) cases.
func CalculateShards(apps []domain.ShardApp, maxShards int) ([]domain.Shard, error) {
	if maxShards < 1 {
		return nil, &domain.ConfigurationError{
			Subject: "max shards",
			Reason:  fmt.Sprintf("must be at least 1, got %d", maxShards),
		}
	}
	if err := validate(apps); err != nil {
		return nil, err
	}

	var units []unit
	total := 0
	for a, app := range apps {
		for t, test := range app.Tests {
			if len(test.Cases) == 0 {
				continue
			}
			units = append(units, unit{app: a, test: t, cases: len(test.Cases)})
			total += len(test.Cases)
		}
	}
	if len(units) == 0 {
		return nil, nil
	}

	// Stable so equal sized tests keep their input order
	sort.SliceStable(units, func(i, j int) bool {
		return units[i].cases > units[j].cases
	})

	count := min(maxShards, len(units))
	target := (total + count - 1) / count
	loads := make([]int, count)
	bins := make([][]chunk, count)
	for _, u := range units {
		for from := 0; from < u.cases; {
			idx := leastLoaded(loads)
			take := min(target-loads[idx], u.cases-from)
			bins[idx] = append(bins[idx], chunk{unit: u, from: from, to: from + take})
			loads[idx] += take
			from += take
		}
	}

	shards := make([]domain.Shard, count)
	for i, bin := range bins {
		shards[i] = regroup(apps, bin)
	}
	return shards, nil
}

// leastLoaded returns the index of the smallest load, lowest index on ties
func leastLoaded(loads []int) int {
	idx := 0
	for i := 1; i < len(loads); i++ {
		if loads[i] < loads[idx] {
			idx = i
		}
	}
	return idx
}

// regroup rebuilds the app/test hierarchy for one shard in input order
func regroup(apps []domain.ShardApp, bin []chunk) domain.Shard {
	sort.SliceStable(bin, func(i, j int) bool {
		if bin[i].app != bin[j].app {
			return bin[i].app < bin[j].app
		}
		if bin[i].test != bin[j].test {
			return bin[i].test < bin[j].test
		}
		return bin[i].from < bin[j].from
	})

	var shard domain.Shard
	lastApp, lastTest := -1, -1
	for _, c := range bin {
		if c.app != lastApp {
			shard = append(shard, domain.ShardApp{Name: apps[c.app].Name})
			lastApp, lastTest = c.app, -1
		}
		current := &shard[len(shard)-1]
		src := apps[c.app].Tests[c.test]
		if c.test != lastTest {
			current.Tests = append(current.Tests, domain.ShardTest{Name: src.Name})
			lastTest = c.test
		}
		test := &current.Tests[len(current.Tests)-1]
		test.Cases = append(test.Cases, src.Cases[c.from:c.to]...)
	}
	return shard
}

// validate rejects empty and duplicate artifact paths
func validate(apps []domain.ShardApp) error {
	seen := make(map[string]bool)
	check := func(path string) error {
		if path == "" {
			return &domain.ConfigurationError{Subject: "apk", Reason: "empty artifact path"}
		}
		if seen[path] {
			return &domain.ConfigurationError{Subject: path, Reason: "artifact path listed more than once"}
		}
		seen[path] = true
		return nil
	}
	for _, app := range apps {
		if err := check(app.Name); err != nil {
			return err
		}
		for _, test := range app.Tests {
			if err := check(test.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stats returns the case count of every shard
func Stats(shards []domain.Shard) []int {
	counts := make([]int, len(shards))
	for i, s := range shards {
		counts[i] = s.CaseCount()
	}
	return counts
}
