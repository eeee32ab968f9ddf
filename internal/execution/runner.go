package execution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"vdt/internal/domain"
)

// EndMarker prefixes the last line of an instrumentation run
const EndMarker = domain.ResultCodePrefix

// ErrUnfinished is returned when the console closes before the end marker
var ErrUnfinished = errors.New("console closed before instrumentation finished")

// InstrumentCommand builds the am instrument invocation for a shard plan
func InstrumentCommand(plan domain.ShardPlan) string {
	return fmt.Sprintf("am instrument -r -w -e class %s %s/%s",
		strings.Join(plan.TestCases, ","), plan.PackageName, plan.TestRunner)
}

// Runner executes the shard plans of one instance on its console
type Runner struct {
	dialer ConsoleDialer
	logger *zap.Logger
}

// NewRunner creates a new Runner
func NewRunner(dialer ConsoleDialer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{dialer: dialer, logger: logger}
}

// Run sends every plan in order and passes each output line to emit. A plan
// ends at the end marker; a console that closes before it fails the run and
// leaves the remaining plans unsent.
func (r *Runner) Run(ctx context.Context, instanceID string, plans []domain.ShardPlan, emit func(string) bool) error {
	console, err := r.dialer.OpenConsole(ctx, instanceID)
	if err != nil {
		return domain.Remote("open console", instanceID, err)
	}
	defer console.Close()

	for _, plan := range plans {
		command := InstrumentCommand(plan)
		r.logger.Debug("running instrumentation", zap.String("instance", instanceID), zap.String("command", command))
		if err := console.SendCommand(ctx, command); err != nil {
			return domain.Remote("send command", instanceID, err)
		}

		for {
			line, err := console.ReadLine(ctx)
			if errors.Is(err, io.EOF) {
				return domain.Remote("read output", instanceID, ErrUnfinished)
			}
			if err != nil {
				return domain.Remote("read output", instanceID, err)
			}
			if !emit(line) {
				return ctx.Err()
			}
			if strings.HasPrefix(strings.TrimSpace(line), EndMarker) {
				break
			}
		}
	}
	return nil
}
