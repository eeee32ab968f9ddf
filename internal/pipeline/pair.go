package pipeline

import "vdt/internal/domain"

// Pair assigns shard i to the i-th ready instance. The counts must match.
func Pair(ready []string, shards []domain.Shard) ([]domain.Assignment, error) {
	if len(ready) != len(shards) {
		return nil, &domain.CapacityError{Required: len(shards), Ready: len(ready)}
	}

	assignments := make([]domain.Assignment, len(shards))
	for i, shard := range shards {
		assignments[i] = domain.Assignment{
			InstanceID: ready[i],
			ShardIndex: i,
			Shard:      shard,
		}
	}
	return assignments, nil
}

// ByInstance indexes assignments by instance id
func ByInstance(assignments []domain.Assignment) domain.InstanceAssignment {
	m := make(domain.InstanceAssignment, len(assignments))
	for _, a := range assignments {
		m[a.InstanceID] = a.Shard
	}
	return m
}
