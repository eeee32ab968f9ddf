package cli

import (
	"time"

	"vdt/internal/config"
)

// Flags holds command-line flags
type Flags struct {
	ConfigPath string
	ApksDir    string
	MaxShards  int
	Project    string
	GPU        bool
	GPUSet     bool // --gpu was given explicitly
	Filter     string
	Settle     time.Duration
	Verbose    bool
	TestCases  bool
	Stats      bool
	Provision  int
	Limit      int
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	var gpu *bool
	if f.GPUSet {
		v := f.GPU
		gpu = &v
	}
	return config.Flags{
		ConfigPath: f.ConfigPath,
		ApksDir:    f.ApksDir,
		MaxShards:  f.MaxShards,
		Project:    f.Project,
		GPU:        gpu,
		Filter:     f.Filter,
		Settle:     f.Settle,
		Verbose:    f.Verbose,
		Limit:      f.Limit,
	}
}
