package model

// IPReputation is the aggregate view of one hashed IP's moderated comments,
// read back from the upstream counter service.
type IPReputation struct {
	Count   int64
	Sum     int64
	Average float64
	Banned  bool
}
