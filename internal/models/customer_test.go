package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_Flatten(t *testing.T) {
	a := Address{Street: "1 High St", City: "Leeds", State: "WY", ZipCode: "LS1 1AA", Country: "UK"}
	assert.Equal(t, "1 High St, Leeds, WY, LS1 1AA, UK", a.Flatten())
}

func TestCustomerApplication_OptionalFields(t *testing.T) {
	var app CustomerApplication
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Jane","email":"jane@shop.io","phone":""}`), &app))

	assert.False(t, app.HasPhone())
	assert.False(t, app.HasDateOfBirth())
	assert.Nil(t, app.DateOfBirth)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"Jane","email":"jane@shop.io","phone":"07123456789","date_of_birth":"1990-01-01"}`), &app))
	assert.True(t, app.HasPhone())
	assert.True(t, app.HasDateOfBirth())
}

func TestCustomer_AddressJSONIsFlat(t *testing.T) {
	c := Customer{ID: 1, Addresses: []CustomerAddress{{ID: 9, Address: Address{Street: "s", Country: "UK"}}}}

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"addresses":[{"id":9,"street":"s","city":"","state":"","zip_code":"","country":"UK"}]`)
}
