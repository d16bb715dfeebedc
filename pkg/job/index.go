package job

// Index provides lookup of jobs by (item, layer) key.
type Index struct {
	byKey map[Key]Job
}

// NewIndex indexes jobs by key. When two jobs share a key the later one wins,
// and a [WarnDuplicateJob] warning is returned for every replaced entry.
func NewIndex(jobs []Job) (*Index, []Warning) {
	idx := &Index{byKey: make(map[Key]Job, len(jobs))}
	var warnings []Warning
	for _, j := range jobs {
		k := j.Key()
		if _, dup := idx.byKey[k]; dup {
			warnings = append(warnings, duplicate(k))
		}
		idx.byKey[k] = j
	}
	return idx, warnings
}

// Lookup returns the job stored under k.
func (x *Index) Lookup(k Key) (Job, bool) {
	j, ok := x.byKey[k]
	return j, ok
}

// Len returns the number of distinct keys.
func (x *Index) Len() int { return len(x.byKey) }

// Resolve maps keys to jobs in the given order. Keys without a job are
// skipped and reported as [WarnManualKeyMissing] warnings.
func (x *Index) Resolve(keys []Key) ([]Job, []Warning) {
	out := make([]Job, 0, len(keys))
	var warnings []Warning
	for _, k := range keys {
		j, ok := x.byKey[k]
		if !ok {
			warnings = append(warnings, manualMissing(k))
			continue
		}
		out = append(out, j)
	}
	return out, warnings
}
