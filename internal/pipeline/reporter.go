package pipeline

// Reporter receives user facing status messages for each stage
type Reporter interface {
	Stage(format string, args ...any)
	Done(format string, args ...any)
	Warn(format string, args ...any)
}

type nopReporter struct{}

func (nopReporter) Stage(string, ...any) {}
func (nopReporter) Done(string, ...any)  {}
func (nopReporter) Warn(string, ...any)  {}
