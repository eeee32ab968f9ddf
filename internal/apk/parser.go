package apk

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Parser reads test metadata from apk files
type Parser interface {
	ParseTestCases(ctx context.Context, path string) ([]string, error)
	ParsePackageName(ctx context.Context, path string) (string, error)
}

// CommandRunner runs an external command and returns its standard output
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Analyzer parses apks with the Android SDK apkanalyzer tool
type Analyzer struct {
	binary string
	run    CommandRunner
}

// NewAnalyzer creates a new Analyzer using the given apkanalyzer binary
func NewAnalyzer(binary string) *Analyzer {
	if binary == "" {
		binary = "apkanalyzer"
	}
	return &Analyzer{binary: binary, run: execOutput}
}

// WithRunner replaces the command runner, used by tests
func (a *Analyzer) WithRunner(run CommandRunner) *Analyzer {
	a.run = run
	return a
}

func execOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return output, err
}

// ParsePackageName returns the application id declared in the apk manifest
func (a *Analyzer) ParsePackageName(ctx context.Context, path string) (string, error) {
	output, err := a.run(ctx, a.binary, "manifest", "application-id", path)
	if err != nil {
		return "", fmt.Errorf("error reading package name of %s: %w", path, err)
	}
	name := strings.TrimSpace(string(output))
	if name == "" {
		return "", fmt.Errorf("no package name found in %s", path)
	}
	return name, nil
}

// ParseTestCases returns every test method defined in the apk dex files
func (a *Analyzer) ParseTestCases(ctx context.Context, path string) ([]string, error) {
	output, err := a.run(ctx, a.binary, "dex", "packages", "--defined-only", path)
	if err != nil {
		return nil, fmt.Errorf("error reading test cases of %s: %w", path, err)
	}
	return TestCasesFromDex(string(output)), nil
}

// Method lines of `apkanalyzer dex packages`:
//
//	M d 1 1 45 com.example.LoginTest void testLogin()
var methodPattern = regexp.MustCompile(`^M\s+\S+\s+\d+\s+\d+\s+\d+\s+(\S+)\s+(?:(\S+)\s+)?([\w$<>]+)\((.*)\)\s*$`)

// TestCasesFromDex extracts "package.Class#method" names from apkanalyzer output.
// A test case is a void no-arg method of a class named *Test or *Tests that
// is not a fixture or compiler generated.
func TestCasesFromDex(output string) []string {
	seen := make(map[string]bool)
	var cases []string

	for _, line := range strings.Split(output, "\n") {
		match := methodPattern.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		class, returnType, method, params := match[1], match[2], match[3], match[4]

		if params != "" || returnType != "void" || !isTestMethod(method) {
			continue
		}
		if !isTestClass(class) {
			continue
		}

		name := class + "#" + method
		if !seen[name] {
			seen[name] = true
			cases = append(cases, name)
		}
	}

	return cases
}

func isTestClass(class string) bool {
	simple := class[strings.LastIndex(class, ".")+1:]
	if strings.Contains(simple, "$") {
		return false
	}
	return strings.HasSuffix(simple, "Test") || strings.HasSuffix(simple, "Tests")
}

// fixtureMethods are JUnit setup and teardown hooks
var fixtureMethods = map[string]bool{
	"setUp":         true,
	"tearDown":      true,
	"setUpClass":    true,
	"tearDownClass": true,
	"init":          true,
	"cleanup":       true,
}

func isTestMethod(method string) bool {
	// Constructors, lambdas and synthetic accessors
	if strings.ContainsAny(method, "<>$") {
		return false
	}
	if fixtureMethods[method] {
		return false
	}
	return !hasHookPrefix(method, "before") && !hasHookPrefix(method, "after")
}

// hasHookPrefix matches before/after hooks such as beforeEach or afterAll,
// but not methods that merely start with the word, like afterwardsWorks.
func hasHookPrefix(method, prefix string) bool {
	rest, ok := strings.CutPrefix(method, prefix)
	if !ok {
		return false
	}
	return rest == "" || (rest[0] >= 'A' && rest[0] <= 'Z')
}
