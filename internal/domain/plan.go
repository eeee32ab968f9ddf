package domain

// ShardPlan is one instrumentation invocation on an instance
type ShardPlan struct {
	PackageName string   `json:"package_name"`
	TestRunner  string   `json:"test_runner"`
	TestCases   []string `json:"test_cases"`
}

// TestPlan holds the instrumentation invocations per instance id
type TestPlan struct {
	Instances map[string][]ShardPlan `json:"instances"`
}

// OutputLine is a single line of test execution output
type OutputLine struct {
	InstanceID string
	Text       string
}
