package domain

// DeletionEligibility is the reservation authority's verdict on whether an
// account may be removed right now.
type DeletionEligibility struct {
	CanProceed    bool
	Reason        string
	BlockingCount int
}

// CascadeResult reports the outcome of removing everything a host owns.
type CascadeResult struct {
	Succeeded     bool
	AffectedCount int
	ErrorMessage  string
}
