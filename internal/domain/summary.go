package domain

import (
	"strconv"
	"strings"
)

// Instrumentation status codes reported in raw mode
const (
	statusStart      = 1
	statusOK         = 0
	statusError      = -1
	statusFailure    = -2
	statusIgnored    = -3
	statusAssumption = -4
)

// Output prefixes of raw instrumentation
const (
	StatusCodePrefix = "INSTRUMENTATION_STATUS_CODE:"
	ResultCodePrefix = "INSTRUMENTATION_CODE:"
)

// TestSummary counts test outcomes in raw instrumentation output
type TestSummary struct {
	Passed  int  `json:"passed"`
	Failed  int  `json:"failed"`
	Ignored int  `json:"ignored"`
	Crashed bool `json:"crashed"`
}

// Total returns the number of finished tests
func (s TestSummary) Total() int {
	return s.Passed + s.Failed + s.Ignored
}

// Summarize reads the status codes of raw instrumentation output. A run that
// ends with an INSTRUMENTATION_CODE other than -1, or without one, is marked crashed.
func Summarize(lines []string) TestSummary {
	var s TestSummary
	finished := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, StatusCodePrefix):
			code, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, StatusCodePrefix)))
			if err != nil {
				continue
			}
			switch code {
			case statusOK:
				s.Passed++
			case statusError, statusFailure:
				s.Failed++
			case statusIgnored, statusAssumption:
				s.Ignored++
			case statusStart:
			}
		case strings.HasPrefix(line, ResultCodePrefix):
			code, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, ResultCodePrefix)))
			// am reports -1 (RESULT_OK) for a completed run
			if err != nil || code != -1 {
				s.Crashed = true
			}
			finished = true
		}
	}
	if !finished && len(lines) > 0 {
		s.Crashed = true
	}
	return s
}

// Summary counts the test outcomes in the instance output
func (r InstanceReport) Summary() TestSummary {
	return Summarize(r.Output)
}
