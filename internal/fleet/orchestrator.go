package fleet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vdt/internal/domain"
	"vdt/internal/ui"
)

// GPUTag is the boot tag enabling GPU acceleration
const GPUTag = "gpu"

// Profile is the device model used for new instances
type Profile struct {
	Flavor string
	OS     string
	Screen string
}

// DefaultProfile is a Pixel-like Android 11 device
var DefaultProfile = Profile{
	Flavor: "ranchu",
	OS:     "11.0.0",
	Screen: "720x1280:280",
}

// Options configure an Orchestrator
type Options struct {
	Prefix       string
	Profile      Profile
	ReadyTimeout time.Duration // Zero waits as long as ctx allows
}

// Request asks for Amount ready instances in a project
type Request struct {
	ProjectID       string
	Amount          int
	GPUAcceleration bool
}

// Orchestrator reconciles the wanted number of instances with the farm state
type Orchestrator struct {
	provider Provider
	opts     Options
	logger   *zap.Logger
	progress *ui.ProgressBar
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(provider Provider, opts Options, logger *zap.Logger) *Orchestrator {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Profile == (Profile{}) {
		opts.Profile = DefaultProfile
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{provider: provider, opts: opts, logger: logger}
}

// SetProgress sets the progress bar advanced for every ready instance
func (o *Orchestrator) SetProgress(progress *ui.ProgressBar) {
	o.progress = progress
}

// Invoke reuses, starts and creates instances until req.Amount exist, then waits
// for all of them concurrently. Ids are sent on the returned channel in the
// order they become ready; the channel is closed once every wait has settled.
// Instances that fail to become ready are logged and not sent. Errors listing,
// starting or creating instances abort before any wait starts.
func (o *Orchestrator) Invoke(ctx context.Context, req Request) (<-chan string, error) {
	if req.Amount < 0 {
		return nil, &domain.ConfigurationError{Subject: "instances", Reason: fmt.Sprintf("negative amount %d", req.Amount)}
	}

	reused, err := o.createdInstances(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := o.startNotRunning(ctx, reused); err != nil {
		return nil, err
	}

	ids := make([]string, 0, req.Amount)
	for _, inst := range reused {
		ids = append(ids, inst.ID)
	}

	// Existing instances may already cover the required amount
	if len(reused) < req.Amount {
		indexes := AdditionalIndexes(reused, o.opts.Prefix, req.Amount)
		created, err := o.createInstances(ctx, req, indexes)
		if err != nil {
			return nil, err
		}
		ids = append(ids, created...)
	}

	return o.waitForInstances(ctx, ids), nil
}

// createdInstances lists the usable instances already created by vdt, at most req.Amount
func (o *Orchestrator) createdInstances(ctx context.Context, req Request) ([]domain.Instance, error) {
	o.logger.Info("getting instances already created", zap.String("project", req.ProjectID))

	instances, err := o.provider.ListInstances(ctx, req.ProjectID)
	if err != nil {
		return nil, domain.Remote("list instances", req.ProjectID, err)
	}

	var reused []domain.Instance
	for _, inst := range instances {
		if len(reused) == req.Amount {
			break
		}
		if _, ok := ParseIndex(o.opts.Prefix, inst.Name); !ok {
			continue
		}
		if inst.State == domain.StateUnavailable {
			continue
		}
		reused = append(reused, inst)
	}

	o.logger.Info("obtained already created instances", zap.Int("count", len(reused)))
	return reused, nil
}

// startNotRunning starts every instance that is not on and waits for the start calls
func (o *Orchestrator) startNotRunning(ctx context.Context, instances []domain.Instance) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, inst := range instances {
		if inst.State == domain.StateOn {
			continue
		}
		o.logger.Info("starting instance", zap.String("instance", inst.ID), zap.String("name", inst.Name), zap.String("state", string(inst.State)))
		g.Go(func() error {
			return domain.Remote("start instance", inst.ID, o.provider.StartInstance(gctx, inst.ID))
		})
	}
	return g.Wait()
}

// createInstances creates one instance per index and returns their ids in index order
func (o *Orchestrator) createInstances(ctx context.Context, req Request, indexes []int) ([]string, error) {
	o.logger.Info("creating additional instances", zap.Int("count", len(indexes)), zap.Ints("indexes", indexes))

	var tags []string
	if req.GPUAcceleration {
		tags = append(tags, GPUTag)
	}

	ids := make([]string, len(indexes))
	g, gctx := errgroup.WithContext(ctx)
	for i, index := range indexes {
		spec := domain.InstanceSpec{
			ProjectID: req.ProjectID,
			Name:      InstanceName(o.opts.Prefix, index),
			Flavor:    o.opts.Profile.Flavor,
			OS:        o.opts.Profile.OS,
			Screen:    o.opts.Profile.Screen,
			Tags:      tags,
		}
		g.Go(func() error {
			inst, err := o.provider.CreateInstance(gctx, spec)
			if err != nil {
				return domain.Remote("create instance", spec.Name, err)
			}
			ids[i] = inst.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

// waitForInstances waits for every id concurrently and emits them as they become ready
func (o *Orchestrator) waitForInstances(ctx context.Context, ids []string) <-chan string {
	o.logger.Info("waiting until all instances are ready", zap.Int("count", len(ids)))

	ready := make(chan string, len(ids))
	var wg sync.WaitGroup
	var mu sync.Mutex
	readyCount, failedCount := 0, 0
	if o.progress != nil {
		o.progress.SetTotal(len(ids))
	}

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			waitCtx, cancel := ctx, context.CancelFunc(func() {})
			if o.opts.ReadyTimeout > 0 {
				waitCtx, cancel = context.WithTimeout(ctx, o.opts.ReadyTimeout)
			}
			defer cancel()

			err := o.provider.WaitUntilReady(waitCtx, id)

			mu.Lock()
			if err != nil {
				failedCount++
			} else {
				readyCount++
			}
			if o.progress != nil {
				o.progress.Update(readyCount, failedCount)
			}
			mu.Unlock()

			if err != nil {
				o.logger.Warn("instance not ready", zap.String("instance", id), zap.Error(err))
				return
			}
			o.logger.Info("instance ready", zap.String("instance", id))
			ready <- id
		}(id)
	}

	go func() {
		wg.Wait()
		if o.progress != nil {
			o.progress.Finish()
		}
		o.logger.Info("all instance waits settled", zap.Int("ready", readyCount), zap.Int("requested", len(ids)))
		close(ready)
	}()

	return ready
}

// Collect drains the ready channel into a list in emission order
func Collect(ready <-chan string) []string {
	var ids []string
	for id := range ready {
		ids = append(ids, id)
	}
	return ids
}
