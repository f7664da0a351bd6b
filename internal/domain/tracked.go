package domain

// TrackedUser is the persisted poll state for one handle: the submission
// sequence observed by the last successfully completed poll, in fetch
// order. It is always replaced wholesale, never merged.
type TrackedUser struct {
	Handle string       `json:"handle"`
	Status []Submission `json:"status"`
}
