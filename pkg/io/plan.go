package io

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/changeover/pkg/errors"
	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/pipeline"
	"github.com/matzehuels/changeover/pkg/segment"
)

// ParseManual parses a manual sequence written as (item, layer) pairs:
//
//	(EP94-04976A,Top), (EP94-04820A,Bottom)
//
// Parentheses are optional; the string is read as a flat comma-separated
// list of alternating item codes and layers. An empty string yields nil. An
// odd number of tokens is an INVALID_MANUAL_SEQUENCE error.
func ParseManual(s string) ([]job.Key, error) {
	s = strings.NewReplacer("(", "", ")", "").Replace(s)
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}
	if len(parts)%2 != 0 {
		return nil, errors.New(errors.ErrCodeInvalidManualSequence,
			"manual sequence must be pairs of (item, layer), got %d values", len(parts))
	}

	keys := make([]job.Key, 0, len(parts)/2)
	for i := 0; i < len(parts); i += 2 {
		if err := errors.ValidateManualItemCode(parts[i]); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManualSequence, err, "entry %d", i/2+1)
		}
		keys = append(keys, job.Key{ItemCode: parts[i], Layer: job.ParseLayer(parts[i+1])})
	}
	return keys, nil
}

// ParsePriority splits a comma-separated list of item codes. Blank entries
// are dropped.
func ParsePriority(s string) []string {
	var codes []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}

// Plan is a YAML run plan. Fields left empty keep their defaults.
type Plan struct {
	Priority  []string      `yaml:"priority"`
	LayerMode string        `yaml:"layer_mode"`
	Manual    []job.Key     `yaml:"manual"`
	Quality   string        `yaml:"quality"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ReadPlan decodes a YAML plan. Unknown fields are rejected.
func ReadPlan(r io.Reader) (*Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var p Plan
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode plan")
	}
	for i, k := range p.Manual {
		p.Manual[i].Layer = job.ParseLayer(string(k.Layer))
	}
	return &p, nil
}

// ImportPlan reads a YAML plan file.
func ImportPlan(path string) (*Plan, error) {
	var p *Plan
	err := withFile(path, func(r io.Reader) (err error) {
		p, err = ReadPlan(r)
		return err
	})
	return p, err
}

// Apply copies the plan's non-empty fields onto opts.
func (p *Plan) Apply(opts *pipeline.Options) error {
	if len(p.Priority) > 0 {
		opts.PriorityCodes = p.Priority
	}
	if p.LayerMode != "" {
		mode, err := segment.ParseLayerMode(p.LayerMode)
		if err != nil {
			return fmt.Errorf("plan: %w", err)
		}
		opts.LayerMode = mode
	}
	if p.Manual != nil {
		opts.Manual = p.Manual
	}
	if p.Quality != "" {
		opts.Quality = p.Quality
	}
	if p.Timeout != 0 {
		opts.Timeout = p.Timeout
	}
	return nil
}
