package cache

import "time"

// Keyer builds cache keys.
type Keyer interface {
	// SequenceKey identifies a solved sequence for a job set and run controls.
	SequenceKey(jobsHash string, opts SequenceKeyOpts) string

	// ArtifactKey identifies a rendered output (csv, json, dot, svg) of a
	// report.
	ArtifactKey(reportHash, format string) string
}

// SequenceKeyOpts holds every run control that can change a sequence.
type SequenceKeyOpts struct {
	Priority  []string      `json:"priority,omitempty"`
	LayerMode string        `json:"layer_mode,omitempty"`
	Manual    []string      `json:"manual,omitempty"`
	Quality   string        `json:"quality"`
	Timeout   time.Duration `json:"timeout"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SequenceKey implements Keyer.
func (DefaultKeyer) SequenceKey(jobsHash string, opts SequenceKeyOpts) string {
	return kindKey("sequence", jobsHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(reportHash, format string) string {
	return kindKey("artifact", reportHash, format)
}
