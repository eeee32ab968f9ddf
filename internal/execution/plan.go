package execution

import (
	"context"
	"fmt"

	"vdt/internal/domain"
)

// DefaultRunner is the instrumentation runner used when none is configured
const DefaultRunner = "androidx.test.runner.AndroidJUnitRunner"

// PackageNameFunc resolves the application id of an artifact
type PackageNameFunc func(ctx context.Context, path string) (string, error)

// BuildPlan creates one ShardPlan per test artifact of every assigned shard.
// Artifacts without cases are skipped.
func BuildPlan(ctx context.Context, assignments []domain.Assignment, packageName PackageNameFunc, runner string) (domain.TestPlan, error) {
	if runner == "" {
		runner = DefaultRunner
	}

	plan := domain.TestPlan{Instances: make(map[string][]domain.ShardPlan, len(assignments))}
	cache := make(map[string]string)

	for _, a := range assignments {
		var plans []domain.ShardPlan
		for _, app := range a.Shard {
			for _, test := range app.Tests {
				if len(test.Cases) == 0 {
					continue
				}

				pkg, ok := cache[test.Name]
				if !ok {
					var err error
					pkg, err = packageName(ctx, test.Name)
					if err != nil {
						return domain.TestPlan{}, fmt.Errorf("package name of %s: %w", test.Name, err)
					}
					cache[test.Name] = pkg
				}

				cases := make([]string, len(test.Cases))
				for i, c := range test.Cases {
					cases[i] = c.Name
				}
				plans = append(plans, domain.ShardPlan{
					PackageName: pkg,
					TestRunner:  runner,
					TestCases:   cases,
				})
			}
		}
		plan.Instances[a.InstanceID] = plans
	}

	return plan, nil
}
