// Package execution turns instance assignments into instrumentation runs and
// streams their output.
package execution

import (
	"context"

	"vdt/internal/domain"
)

// Executor executes a test plan and streams its output
type Executor interface {
	Execute(ctx context.Context, plan domain.TestPlan) (<-chan domain.OutputLine, error)
}

// Console is a shell session able to read back output
type Console interface {
	SendCommand(ctx context.Context, command string) error
	ReadLine(ctx context.Context) (string, error)
	Close() error
}

// ConsoleDialer opens consoles on instances
type ConsoleDialer interface {
	OpenConsole(ctx context.Context, instanceID string) (Console, error)
}
