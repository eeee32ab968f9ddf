package domain

// Case is a single test method, formatted "package.Class#method"
type Case struct {
	Name string `json:"name"`
}

// ShardTest is a test apk with the cases assigned to one shard
type ShardTest struct {
	Name  string `json:"name"` // Test apk path
	Cases []Case `json:"cases"`
}

// ShardApp is an app apk with the tests assigned to one shard
type ShardApp struct {
	Name  string      `json:"name"` // App apk path
	Tests []ShardTest `json:"tests"`
}

// Shard is the slice of the workload executed by one device instance
type Shard []ShardApp

// CaseCount returns the number of cases in the shard
func (s Shard) CaseCount() int {
	total := 0
	for _, app := range s {
		for _, test := range app.Tests {
			total += len(test.Cases)
		}
	}
	return total
}

// Cases returns all case names in shard order
func (s Shard) Cases() []string {
	var names []string
	for _, app := range s {
		for _, test := range app.Tests {
			for _, c := range test.Cases {
				names = append(names, c.Name)
			}
		}
	}
	return names
}
