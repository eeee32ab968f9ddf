package install

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"vdt/internal/domain"
	"vdt/internal/ui"
)

// Result is the outcome of installing on one instance
type Result struct {
	InstanceID string
	Err        error
	Duration   time.Duration
}

// Pool installs on many instances in parallel
type Pool struct {
	installer Installer
	progress  *ui.ProgressBar
	logger    *zap.Logger
}

// NewPool creates a new Pool
func NewPool(installer Installer, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{installer: installer, logger: logger}
}

// SetProgress sets the progress bar for the pool
func (p *Pool) SetProgress(progress *ui.ProgressBar) {
	p.progress = progress
}

// InstallAll runs one install per set, all at once. A failure on one instance
// never cancels the others; every result is returned in set order.
func (p *Pool) InstallAll(ctx context.Context, instances map[string]domain.Instance, sets []domain.ArtifactInstallSet) []Result {
	if len(sets) == 0 {
		return nil
	}

	type indexed struct {
		index  int
		result Result
	}
	results := make(chan indexed, len(sets))

	var mu sync.Mutex
	var succeeded, failed int
	if p.progress != nil {
		p.progress.SetTotal(len(sets))
	}

	var wg sync.WaitGroup
	for i, set := range sets {
		wg.Add(1)
		go func(i int, set domain.ArtifactInstallSet) {
			defer wg.Done()

			start := time.Now()
			var err error
			inst, ok := instances[set.InstanceID]
			if !ok {
				err = &domain.ConfigurationError{Subject: set.InstanceID, Reason: "unknown instance"}
			} else {
				err = p.installer.Install(ctx, inst, set)
			}
			if err != nil {
				p.logger.Error("install failed", zap.String("instance", set.InstanceID), zap.Error(err))
			}

			results <- indexed{index: i, result: Result{InstanceID: set.InstanceID, Err: err, Duration: time.Since(start)}}

			mu.Lock()
			if err == nil {
				succeeded++
			} else {
				failed++
			}
			if p.progress != nil {
				p.progress.Update(succeeded, failed)
			}
			mu.Unlock()
		}(i, set)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	all := make([]Result, len(sets))
	for r := range results {
		all[r.index] = r.result
	}
	if p.progress != nil {
		p.progress.Finish()
	}
	return all
}
