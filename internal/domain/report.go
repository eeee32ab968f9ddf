package domain

// InstanceReport describes what happened on one instance during a run
type InstanceReport struct {
	InstanceID   string   `json:"instance_id"`
	ShardIndex   int      `json:"shard_index"`
	CaseCount    int      `json:"case_count"`
	Artifacts    []string `json:"artifacts"`
	InstallError string   `json:"install_error,omitempty"`
	Output       []string `json:"output,omitempty"`
}

// RunMeta contains metadata about a run
type RunMeta struct {
	RunID           string  `json:"run_id"`
	Project         string  `json:"project"`
	Status          string  `json:"status"`
	Error           string  `json:"error,omitempty"`
	Shards          int     `json:"shards"`
	Cases           int     `json:"cases"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	StartedAt       string  `json:"started_at"`
	FinishedAt      string  `json:"finished_at"`
}

// RunReport is the complete record of one run
type RunReport struct {
	Meta      RunMeta          `json:"meta"`
	Instances []InstanceReport `json:"instances"`
}

// Run statuses
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Instance returns the report entry for an instance, creating it if needed
func (r *RunReport) Instance(id string) *InstanceReport {
	for i := range r.Instances {
		if r.Instances[i].InstanceID == id {
			return &r.Instances[i]
		}
	}
	r.Instances = append(r.Instances, InstanceReport{InstanceID: id})
	return &r.Instances[len(r.Instances)-1]
}
