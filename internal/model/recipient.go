package model

import (
	"encoding/json"
	"errors"
)

// Recipient is the canonical form of a bulk-send destination. The HTTP API
// accepts either a bare phone number string or an object carrying account
// context; both decode into this struct.
type Recipient struct {
	PhoneNumber   string `json:"phoneNumber"`
	AccountNumber string `json:"accountNumber,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
}

func (r *Recipient) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		r.PhoneNumber = raw
		return nil
	}

	type alias Recipient
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.New("recipient must be a phone number string or an object")
	}
	*r = Recipient(obj)
	return nil
}
