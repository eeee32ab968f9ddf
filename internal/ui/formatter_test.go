package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"vdt/internal/domain"
)

func init() {
	color.NoColor = true
}

func TestFormatter_PrintShardTree(t *testing.T) {
	var buf bytes.Buffer
	shards := []domain.Shard{
		{{Name: "out/a.apk", Tests: []domain.ShardTest{{Name: "out/a-androidTest.apk", Cases: []domain.Case{{Name: "a.ATest#one"}, {Name: "a.ATest#two"}}}}}},
		{{Name: "out/b.apk", Tests: []domain.ShardTest{{Name: "out/b-androidTest.apk", Cases: []domain.Case{{Name: "b.BTest#one"}}}}}},
	}

	NewFormatterTo(&buf).PrintShardTree(shards, true)

	want := `3 test case(s) in 2 shard(s):

├── shard 0 (2 cases)
│   └── a.apk
│       └── a-androidTest.apk (2)
│           ├── a.ATest#one
│           └── a.ATest#two
└── shard 1 (1 cases)
    └── b.apk
        └── b-androidTest.apk (1)
            └── b.BTest#one
`
	assert.Equal(t, want, buf.String())
}

func TestFormatter_PrintShardTreeEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewFormatterTo(&buf).PrintShardTree(nil, false)
	assert.Equal(t, "No test cases found\n", buf.String())
}

func TestFormatter_PrintOutputLine(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatterTo(&buf)
	f.PrintOutputLine(domain.OutputLine{InstanceID: "0123456789abcdef", Text: "hello"})
	f.PrintOutputLine(domain.OutputLine{InstanceID: "i2", Text: "world"})

	assert.Equal(t, "[01234567] hello\n[i2] world\n", buf.String())
	assert.Len(t, f.colors, 2)
}

func TestFormatter_PrintReportStats(t *testing.T) {
	var buf bytes.Buffer
	report := &domain.RunReport{
		Meta: domain.RunMeta{RunID: "run-1", Project: "android", Status: domain.StatusSucceeded, Shards: 1, Cases: 2},
		Instances: []domain.InstanceReport{{
			InstanceID: "i1",
			Output: []string{
				"INSTRUMENTATION_STATUS: class=a.ATest",
				"INSTRUMENTATION_STATUS: test=one",
				"INSTRUMENTATION_STATUS_CODE: 0",
				"INSTRUMENTATION_STATUS: class=a.ATest",
				"INSTRUMENTATION_STATUS: test=two",
				"INSTRUMENTATION_STATUS_CODE: -2",
				"INSTRUMENTATION_CODE: -1",
			},
		}},
	}

	NewFormatterTo(&buf).PrintReportStats(report)
	out := buf.String()

	assert.Contains(t, out, "Test Execution Statistics")
	assert.Regexp(t, `│ Passed\s+│ 1\s+│`, out)
	assert.Regexp(t, `│ Failed\s+│ 1\s+│`, out)
	assert.True(t, strings.HasSuffix(out, "✗ 1 test case(s) failed, 0 instance(s) crashed\n"))

	assert.Equal(t, map[string][]string{"i1": {"a.ATest#two"}}, FailedCases(report))
}

func TestFormatter_PrintInstances(t *testing.T) {
	var buf bytes.Buffer
	NewFormatterTo(&buf).PrintInstances([]domain.Instance{
		{ID: "id-2", Name: "vdt-android-1", State: domain.StateOff},
		{ID: "id-1", Name: "vdt-android-0", State: domain.StateOn, Agent: "agent"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "vdt-android-0"))
	assert.True(t, strings.HasSuffix(lines[2], "-"))
}

func TestReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporterTo(&buf)
	r.Stage("Preparing %d instances", 2)
	r.Done("ready")
	r.Warn("careful")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "▶ Preparing 2 instances")
	assert.Contains(t, lines[1], "✓ ready")
	assert.Contains(t, lines[2], "! careful")
}
