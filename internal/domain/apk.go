package domain

import "strings"

// TestApkSuffix marks instrumentation test packages by file name.
const TestApkSuffix = "androidTest.apk"

// ApkKind discriminates the two Apk variants
type ApkKind int

const (
	// KindApp is an application under test
	KindApp ApkKind = iota
	// KindTest is an instrumentation test package
	KindTest
)

// String returns the kind name
func (k ApkKind) String() string {
	switch k {
	case KindApp:
		return "app"
	case KindTest:
		return "test"
	default:
		return "unknown"
	}
}

// Apk is a local apk artifact. App variants own their test packages in Tests,
// test variants never have Tests.
type Apk struct {
	Kind  ApkKind `json:"kind" yaml:"-"`
	Path  string  `json:"path" yaml:"path"`
	Tests []Apk   `json:"tests,omitempty" yaml:"-"`
}

// NewApp creates an App apk owning the given test apk paths
func NewApp(path string, testPaths ...string) Apk {
	app := Apk{Kind: KindApp, Path: path}
	for _, p := range testPaths {
		app.Tests = append(app.Tests, NewTest(p))
	}
	return app
}

// NewTest creates a Test apk
func NewTest(path string) Apk {
	return Apk{Kind: KindTest, Path: path}
}

// IsTestArtifact reports whether path names an instrumentation test package
func IsTestArtifact(path string) bool {
	return strings.HasSuffix(path, TestApkSuffix)
}
