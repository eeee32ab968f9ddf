package pipeline

import (
	"context"
	"fmt"

	"vdt/internal/apk"
	"vdt/internal/discovery"
	"vdt/internal/domain"
)

// PrepareShardInput reads the cases of every test artifact and keeps the ones
// matching pattern. Apps are listed in input order; tests left without
// cases stay in the result and are dropped by the assigner.
func PrepareShardInput(ctx context.Context, parser apk.Parser, apks []domain.Apk, pattern string) ([]domain.ShardApp, error) {
	filter := discovery.NewFilter()

	apps := make([]domain.ShardApp, 0, len(apks))
	for _, a := range apks {
		if a.Kind != domain.KindApp {
			return nil, &domain.ConfigurationError{Subject: a.Path, Reason: "expected an application apk, got " + a.Kind.String()}
		}

		app := domain.ShardApp{Name: a.Path}
		for _, t := range a.Tests {
			names, err := parser.ParseTestCases(ctx, t.Path)
			if err != nil {
				return nil, fmt.Errorf("parse test cases of %s: %w", t.Path, err)
			}
			names = filter.FilterByName(names, pattern)

			test := domain.ShardTest{Name: t.Path, Cases: make([]domain.Case, len(names))}
			for i, n := range names {
				test.Cases[i] = domain.Case{Name: n}
			}
			app.Tests = append(app.Tests, test)
		}
		apps = append(apps, app)
	}
	return apps, nil
}
