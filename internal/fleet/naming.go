package fleet

import (
	"sort"
	"strconv"
	"strings"

	"vdt/internal/domain"
)

// DefaultPrefix is prepended to the index of every instance created by vdt
const DefaultPrefix = "vdt-android-"

// InstanceName returns the name of the instance with the given index
func InstanceName(prefix string, index int) string {
	return prefix + strconv.Itoa(index)
}

// ParseIndex returns the index encoded in an instance name, or false if the
// name does not follow the "<prefix><index>" convention.
func ParseIndex(prefix, name string) (int, bool) {
	suffix, ok := strings.CutPrefix(name, prefix)
	if !ok || suffix == "" {
		return 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	index, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return index, true
}

// AdditionalIndexes returns the indexes for the instances missing from current:
// the smallest unused values of 0..amount-1, ascending.
func AdditionalIndexes(current []domain.Instance, prefix string, amount int) []int {
	used := make(map[int]bool, len(current))
	for _, inst := range current {
		if index, ok := ParseIndex(prefix, inst.Name); ok {
			used[index] = true
		}
	}

	deficit := amount - len(current)
	if deficit <= 0 {
		return nil
	}

	indexes := make([]int, 0, deficit)
	for i := 0; i < amount && len(indexes) < deficit; i++ {
		if !used[i] {
			indexes = append(indexes, i)
		}
	}
	sort.Ints(indexes)
	return indexes
}
