// Package pipeline runs one test session from credentials to streamed output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vdt/internal/apk"
	"vdt/internal/domain"
	"vdt/internal/execution"
	"vdt/internal/fleet"
	"vdt/internal/install"
	"vdt/internal/sharding"
)

// DefaultSettle is the wait between installing and running tests
const DefaultSettle = 10 * time.Second

// Authorizer logs in to the device farm
type Authorizer interface {
	Authorize(ctx context.Context, creds domain.Credentials) error
}

// Farm resolves projects and reads instance records
type Farm interface {
	ProjectID(ctx context.Context, name string) (string, error)
	ListInstances(ctx context.Context, projectID string) ([]domain.Instance, error)
}

// Provisioner brings up ready instances
type Provisioner interface {
	Invoke(ctx context.Context, req fleet.Request) (<-chan string, error)
}

// InstallRunner installs artifact sets on instances
type InstallRunner interface {
	InstallAll(ctx context.Context, instances map[string]domain.Instance, sets []domain.ArtifactInstallSet) []install.Result
}

// Deps are the collaborators of a Coordinator
type Deps struct {
	Auth      Authorizer
	Farm      Farm
	Fleet     Provisioner
	Parser    apk.Parser
	Assigner  sharding.Assigner
	Installer InstallRunner
	Executor  execution.Executor
	Reporter  Reporter
	Logger    *zap.Logger
}

// Options tune a Coordinator
type Options struct {
	Settle time.Duration // Negative disables the wait
	Runner string

	// sleep waits for d unless ctx ends first
	sleep func(ctx context.Context, d time.Duration) error
}

// Config describes one run
type Config struct {
	Credentials domain.Credentials
	Apks        []domain.Apk
	MaxShards   int
	ProjectName string
	GPU         bool
	Filter      string
}

// Coordinator drives the stages of a run in order
type Coordinator struct {
	deps Deps
	opts Options
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(deps Deps, opts Options) *Coordinator {
	if deps.Assigner == nil {
		deps.Assigner = sharding.NewLargestFirst()
	}
	if deps.Reporter == nil {
		deps.Reporter = nopReporter{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.Settle == 0 {
		opts.Settle = DefaultSettle
	}
	if opts.Runner == "" {
		opts.Runner = execution.DefaultRunner
	}
	if opts.sleep == nil {
		opts.sleep = sleep
	}
	return &Coordinator{deps: deps, opts: opts}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run executes every stage and passes each output line to emit. The returned
// report is never nil and records how far the run got.
func (c *Coordinator) Run(ctx context.Context, cfg Config, emit func(domain.OutputLine)) (*domain.RunReport, error) {
	start := time.Now()
	report := &domain.RunReport{Meta: domain.RunMeta{
		RunID:     uuid.NewString(),
		Project:   cfg.ProjectName,
		StartedAt: start.Format(time.RFC3339),
	}}
	log := c.deps.Logger.With(zap.String("run_id", report.Meta.RunID))

	err := c.run(ctx, cfg, report, log, emit)

	finish := time.Now()
	elapsed := finish.Sub(start)
	report.Meta.FinishedAt = finish.Format(time.RFC3339)
	report.Meta.Duration = elapsed.Round(time.Millisecond).String()
	report.Meta.DurationSeconds = elapsed.Seconds()
	report.Meta.Status = domain.StatusSucceeded
	if err != nil {
		report.Meta.Status = domain.StatusFailed
		report.Meta.Error = err.Error()
		log.Error("run failed", zap.Error(err))
	} else {
		log.Info("run finished", zap.Duration("duration", elapsed))
	}
	return report, err
}

func (c *Coordinator) run(ctx context.Context, cfg Config, report *domain.RunReport, log *zap.Logger, emit func(domain.OutputLine)) error {
	r := c.deps.Reporter

	r.Stage("Authorizing")
	if err := c.deps.Auth.Authorize(ctx, cfg.Credentials); err != nil {
		return err
	}

	r.Stage("Calculating shards")
	input, err := PrepareShardInput(ctx, c.deps.Parser, cfg.Apks, cfg.Filter)
	if err != nil {
		return err
	}
	shards, err := c.deps.Assigner.Assign(input, cfg.MaxShards)
	if err != nil {
		return err
	}
	report.Meta.Shards = len(shards)
	for _, s := range shards {
		report.Meta.Cases += s.CaseCount()
	}
	log.Info("shards calculated", zap.Int("shards", len(shards)), zap.Ints("cases", sharding.Stats(shards)))
	if len(shards) == 0 {
		r.Warn("No test cases found")
		return nil
	}
	r.Done("%d test cases in %d shards", report.Meta.Cases, len(shards))

	r.Stage("Preparing %d instances", len(shards))
	projectID, err := c.deps.Farm.ProjectID(ctx, cfg.ProjectName)
	if err != nil {
		return domain.Remote("resolve project", cfg.ProjectName, err)
	}
	readyCh, err := c.deps.Fleet.Invoke(ctx, fleet.Request{
		ProjectID:       projectID,
		Amount:          len(shards),
		GPUAcceleration: cfg.GPU,
	})
	if err != nil {
		return err
	}
	ready := fleet.Collect(readyCh)

	assignments, err := Pair(ready, shards)
	if err != nil {
		return err
	}
	r.Done("%d instances ready", len(ready))

	sets := domain.InstallSets(assignments)
	for i, a := range assignments {
		entry := report.Instance(a.InstanceID)
		entry.ShardIndex = a.ShardIndex
		entry.CaseCount = a.Shard.CaseCount()
		entry.Artifacts = sets[i].Paths
	}

	r.Stage("Installing artifacts")
	instances, err := c.instanceRecords(ctx, projectID, ready)
	if err != nil {
		return err
	}
	if err := c.installAll(ctx, instances, sets, report); err != nil {
		return err
	}
	r.Done("Artifacts installed")

	if err := c.opts.sleep(ctx, c.opts.Settle); err != nil {
		return err
	}

	r.Stage("Running tests")
	plan, err := execution.BuildPlan(ctx, assignments, c.deps.Parser.ParsePackageName, c.opts.Runner)
	if err != nil {
		return err
	}
	out, err := c.deps.Executor.Execute(ctx, plan)
	if err != nil {
		return err
	}
	shardOf := ByInstance(assignments)
	for line := range out {
		if _, ok := shardOf[line.InstanceID]; !ok {
			log.Warn("output from unassigned instance", zap.String("instance", line.InstanceID))
			continue
		}
		entry := report.Instance(line.InstanceID)
		entry.Output = append(entry.Output, line.Text)
		if emit != nil {
			emit(line)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.Done("Tests finished")
	return nil
}

// instanceRecords reads the current records of the ready instances
func (c *Coordinator) instanceRecords(ctx context.Context, projectID string, ids []string) (map[string]domain.Instance, error) {
	all, err := c.deps.Farm.ListInstances(ctx, projectID)
	if err != nil {
		return nil, domain.Remote("list instances", projectID, err)
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	records := make(map[string]domain.Instance, len(ids))
	for _, inst := range all {
		if wanted[inst.ID] {
			records[inst.ID] = inst
		}
	}
	return records, nil
}

// installAll waits for every install to settle and fails if any did
func (c *Coordinator) installAll(ctx context.Context, instances map[string]domain.Instance, sets []domain.ArtifactInstallSet, report *domain.RunReport) error {
	var errs []error
	for _, res := range c.deps.Installer.InstallAll(ctx, instances, sets) {
		if res.Err == nil {
			continue
		}
		report.Instance(res.InstanceID).InstallError = res.Err.Error()
		errs = append(errs, res.Err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("install failed on %d of %d instances: %w", len(errs), len(sets), errors.Join(errs...))
	}
	return nil
}
