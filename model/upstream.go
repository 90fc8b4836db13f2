package model

// UpstreamResult is a raw upstream response, replayed to the caller by the
// passthrough endpoints.
type UpstreamResult struct {
	Status      int
	Body        []byte
	ContentType string
}

func (r *UpstreamResult) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r *UpstreamResult) Text() string {
	return string(r.Body)
}
