package model

// Intent is one entry in the auto-reply table: a set of example phrases and
// the candidate responses returned when an inbound message matches.
type Intent struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Phrases   []string `json:"phrases"`
	Responses []string `json:"responses"`
}
