package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecipientUnmarshalString(t *testing.T) {
	var r Recipient
	err := json.Unmarshal([]byte(`"0821234567"`), &r)

	assert.NoError(t, err)
	assert.Equal(t, "0821234567", r.PhoneNumber)
	assert.Empty(t, r.AccountNumber)
}

func TestRecipientUnmarshalObject(t *testing.T) {
	var r Recipient
	err := json.Unmarshal([]byte(`{"phoneNumber":"0821234567","accountNumber":"ACC-001","name":"Thabo"}`), &r)

	assert.NoError(t, err)
	assert.Equal(t, "0821234567", r.PhoneNumber)
	assert.Equal(t, "ACC-001", r.AccountNumber)
	assert.Equal(t, "Thabo", r.Name)
}

func TestRecipientUnmarshalInvalid(t *testing.T) {
	var r Recipient
	err := json.Unmarshal([]byte(`42`), &r)
	assert.Error(t, err)
}

func TestRecipientListMixedForms(t *testing.T) {
	var list []Recipient
	err := json.Unmarshal([]byte(`["0821234567",{"email":"a@b.co.za","accountNumber":"ACC-002"}]`), &list)

	assert.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "0821234567", list[0].PhoneNumber)
	assert.Equal(t, "a@b.co.za", list[1].Email)
}
