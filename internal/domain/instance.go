package domain

// InstanceState is the lifecycle state of a remote device
type InstanceState string

const (
	StateOff          InstanceState = "off"
	StateOn           InstanceState = "on"
	StateTransitional InstanceState = "transitional"
	StateUnavailable  InstanceState = "unavailable"
)

// Instance is a remote virtual device record
type Instance struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	State InstanceState `json:"state"`
	Agent string        `json:"agent,omitempty"` // Agent connection descriptor, empty until provisioned
}

// InstanceSpec describes a device to create
type InstanceSpec struct {
	ProjectID string
	Name      string
	Flavor    string
	OS        string
	Screen    string
	Tags      []string
}

// Assignment pairs one ready instance with one shard
type Assignment struct {
	InstanceID string `json:"instance_id"`
	ShardIndex int    `json:"shard_index"`
	Shard      Shard  `json:"shard"`
}

// InstanceAssignment maps instance ids to their shard
type InstanceAssignment map[string]Shard

// ArtifactInstallSet lists the local apk paths to push onto one instance
type ArtifactInstallSet struct {
	InstanceID string
	Paths      []string
}

// Credentials authorize against the device farm
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`
}

// InstallSets flattens each assignment into the artifacts its instance needs:
// the test apks of every app followed by the app apk itself.
func InstallSets(assignments []Assignment) []ArtifactInstallSet {
	sets := make([]ArtifactInstallSet, 0, len(assignments))
	for _, a := range assignments {
		set := ArtifactInstallSet{InstanceID: a.InstanceID}
		for _, app := range a.Shard {
			for _, test := range app.Tests {
				set.Paths = append(set.Paths, test.Name)
			}
			set.Paths = append(set.Paths, app.Name)
		}
		sets = append(sets, set)
	}
	return sets
}
