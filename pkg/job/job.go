// Package job defines the unit of work that the sequencer orders: one item
// produced on one side (layer) of a board.
//
// Jobs are plain values. Every stage that needs to tag a job with its tier
// works on a copy, so slices handed in by callers are never modified.
package job

import (
	"fmt"
	"strings"

	"github.com/matzehuels/changeover/pkg/material"
)

// Layer identifies the board side a job is mounted on.
//
// Only [LayerTop] and [LayerBottom] take part in layer ordering. Any other
// value is kept verbatim and sequenced after both known layers.
type Layer string

const (
	LayerTop     Layer = "Top"
	LayerBottom  Layer = "Bottom"
	LayerUnknown Layer = "Unknown"
)

// ParseLayer maps the spellings found in BOM and schedule exports onto a
// Layer. "T", "ST" and "Top" (any case) become [LayerTop]; "B", "SB" and
// "Bottom" become [LayerBottom]. An empty string becomes [LayerUnknown];
// anything else is returned trimmed but otherwise unchanged.
func ParseLayer(s string) Layer {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "T", "ST", "TOP":
		return LayerTop
	case "B", "SB", "BOTTOM":
		return LayerBottom
	case "":
		return LayerUnknown
	}
	return Layer(s)
}

// Known reports whether l is Top or Bottom.
func (l Layer) Known() bool { return l == LayerTop || l == LayerBottom }

// Tier is the coarse ordering bucket a job was placed in.
type Tier int

const (
	TierRemaining Tier = iota
	TierPriority
	TierManual
)

var tierNames = map[Tier]string{
	TierRemaining: "remaining",
	TierPriority:  "priority",
	TierManual:    "manual",
}

func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	for k, v := range tierNames {
		if v == string(text) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", text)
}

// Key is the (item, layer) pair that identifies a job within one run.
type Key struct {
	ItemCode string `json:"item_code" yaml:"item"`
	Layer    Layer  `json:"layer" yaml:"layer"`
}

func (k Key) String() string { return fmt.Sprintf("(%s,%s)", k.ItemCode, k.Layer) }

// Job is one production unit to be sequenced.
type Job struct {
	ItemCode string `json:"item_code"`
	Layer    Layer  `json:"layer"`

	// Qty and ProdTime come from the production schedule. They are nil when
	// the schedule has no row for this job and never influence ordering.
	Qty      *int     `json:"qty,omitempty"`
	ProdTime *float64 `json:"prod_time,omitempty"`

	// CommonCount is the number of materials classified common for this job.
	CommonCount int `json:"common_count"`

	// Individual holds the item-specific materials. It never contains a
	// common material once the job has gone through [Build].
	Individual material.Set `json:"individual_materials"`

	// Tier is assigned by the pipeline.
	Tier Tier `json:"-"`
}

// Key returns the job's (item, layer) identity.
func (j Job) Key() Key { return Key{ItemCode: j.ItemCode, Layer: j.Layer} }

// IndividualCount returns the number of individual materials.
func (j Job) IndividualCount() int { return j.Individual.Len() }

// TotalCount returns common plus individual material counts.
func (j Job) TotalCount() int { return j.CommonCount + j.Individual.Len() }

// WithTier returns a copy of j tagged with t.
func (j Job) WithTier(t Tier) Job {
	j.Tier = t
	return j
}

// Tag returns copies of jobs tagged with t.
func Tag(jobs []Job, t Tier) []Job {
	out := make([]Job, len(jobs))
	for i, j := range jobs {
		out[i] = j.WithTier(t)
	}
	return out
}
