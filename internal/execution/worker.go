package execution

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"vdt/internal/domain"
	"vdt/internal/ui"
)

// InstrumentExecutor runs the plans of all instances concurrently
type InstrumentExecutor struct {
	runner   *Runner
	logger   *zap.Logger
	progress *ui.ProgressBar
}

// NewInstrumentExecutor creates a new InstrumentExecutor
func NewInstrumentExecutor(dialer ConsoleDialer, logger *zap.Logger) *InstrumentExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentExecutor{runner: NewRunner(dialer, logger), logger: logger}
}

// SetProgress sets the progress bar for finished instances
func (e *InstrumentExecutor) SetProgress(progress *ui.ProgressBar) {
	e.progress = progress
}

// Execute starts one runner per instance. The returned channel is closed once
// every instance finished. Runner failures are logged and reported as a
// final output line of that instance.
func (e *InstrumentExecutor) Execute(ctx context.Context, plan domain.TestPlan) (<-chan domain.OutputLine, error) {
	ids := make([]string, 0, len(plan.Instances))
	for id := range plan.Instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make(chan domain.OutputLine, 64)

	var mu sync.Mutex
	var succeeded, failed int
	if e.progress != nil {
		e.progress.SetTotal(len(ids))
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			send := func(text string) bool {
				select {
				case out <- domain.OutputLine{InstanceID: id, Text: text}:
					return true
				case <-ctx.Done():
					return false
				}
			}

			err := e.runner.Run(ctx, id, plan.Instances[id], send)
			if err != nil {
				e.logger.Error("instrumentation failed", zap.String("instance", id), zap.Error(err))
				send("vdt: " + err.Error())
			}

			mu.Lock()
			if err != nil {
				failed++
			} else {
				succeeded++
			}
			if e.progress != nil {
				e.progress.Update(succeeded, failed)
			}
			mu.Unlock()
		}(id)
	}

	go func() {
		wg.Wait()
		if e.progress != nil {
			e.progress.Finish()
		}
		close(out)
	}()

	return out, nil
}
