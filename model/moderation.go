package model

// ModerationResult either carries a score (OK) or a machine-readable error
// reason plus the upstream HTTP status when there was one.
type ModerationResult struct {
	OK      bool
	Score   int
	ErrCode string
	Status  int
}
