package sync

// Result summarizes a completed sync cycle.
type Result struct {
	Uploaded      int
	Downloaded    int
	DeletedLocal  int
	DeletedRemote int

	// Failed counts items skipped after exhausting retries; each has an
	// entry in Errors.
	Failed  int
	Skipped int

	// Pending holds conflicts deferred under StrategyAsk, awaiting
	// ResolveConflicts.
	Pending []Conflict

	// Partial is set when the cycle completed but some items failed or
	// conflicts are pending.
	Partial bool

	Errors []ItemError
}

func (r *Result) record(err ItemError) {
	r.Failed++
	r.Errors = append(r.Errors, err)
}
