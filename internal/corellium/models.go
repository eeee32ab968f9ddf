package corellium

import "vdt/internal/domain"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token      string `json:"token"`
	Expiration string `json:"expiration"`
}

type project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type agent struct {
	Hash string `json:"hash"`
	Info string `json:"info"`
}

type instance struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	State  string `json:"state"`
	Flavor string `json:"flavor"`
	Agent  *agent `json:"agent"`
}

type bootOptions struct {
	Screen         string   `json:"screen,omitempty"`
	AdditionalTags []string `json:"additionalTags,omitempty"`
}

type createRequest struct {
	Project     string      `json:"project"`
	Name        string      `json:"name"`
	Flavor      string      `json:"flavor"`
	OS          string      `json:"os"`
	BootOptions bootOptions `json:"bootOptions"`
}

type createResponse struct {
	ID string `json:"id"`
}

type consoleResponse struct {
	URL string `json:"url"`
}

func (i instance) toDomain() domain.Instance {
	inst := domain.Instance{ID: i.ID, Name: i.Name, State: State(i.State)}
	if i.Agent != nil {
		inst.Agent = i.Agent.Info
	}
	return inst
}

// State maps a farm instance state onto the lifecycle used by vdt
func State(raw string) domain.InstanceState {
	switch raw {
	case "on":
		return domain.StateOn
	case "off", "paused":
		return domain.StateOff
	case "creating", "booting", "rebooting", "restoring", "updating":
		return domain.StateTransitional
	default:
		// deleting, deleted, error and anything unknown
		return domain.StateUnavailable
	}
}
