package job

import "fmt"

// WarningKind classifies a recoverable condition found during a run.
type WarningKind string

const (
	// WarnManualKeyMissing: a manual sequence entry matched no job and was skipped.
	WarnManualKeyMissing WarningKind = "manual_key_missing"
	// WarnPriorityUnmatched: a priority item code matched no job.
	WarnPriorityUnmatched WarningKind = "priority_code_unmatched"
	// WarnDuplicateJob: two input rows share an (item, layer) key.
	WarnDuplicateJob WarningKind = "duplicate_job"
)

// Warning is a non-fatal diagnostic returned alongside a result.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Key     Key         `json:"key"`
	Message string      `json:"message"`
}

func (w Warning) String() string { return w.Message }

func manualMissing(k Key) Warning {
	return Warning{
		Kind:    WarnManualKeyMissing,
		Key:     k,
		Message: fmt.Sprintf("manual item %s not found in job set, skipped", k),
	}
}

// PriorityUnmatched builds the warning for a priority code without jobs.
func PriorityUnmatched(code string) Warning {
	return Warning{
		Kind:    WarnPriorityUnmatched,
		Key:     Key{ItemCode: code},
		Message: fmt.Sprintf("priority item %s matches no job", code),
	}
}

func duplicate(k Key) Warning {
	return Warning{
		Kind:    WarnDuplicateJob,
		Key:     k,
		Message: fmt.Sprintf("duplicate job %s, later row replaces earlier one for key lookups", k),
	}
}
