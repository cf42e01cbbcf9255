package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hours struct {
	Day         string `json:"day"`
	OpeningTime string `json:"openingTime"`
}

func TestDecodeFlexible(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		present bool
		want    []hours
		wantErr bool
	}{
		{name: "array", raw: `[{"day":"Monday","openingTime":"09:00"}]`, present: true, want: []hours{{"Monday", "09:00"}}},
		{name: "string holding array", raw: `"[{\"day\":\"Monday\",\"openingTime\":\"09:00\"}]"`, present: true, want: []hours{{"Monday", "09:00"}}},
		{name: "null", raw: `null`},
		{name: "absent", raw: ``},
		{name: "empty string", raw: `""`},
		{name: "unknown field", raw: `[{"day":"Monday","colour":"red"}]`, wantErr: true},
		{name: "malformed string", raw: `"[{"`, wantErr: true},
		{name: "trailing data", raw: `[] []`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []hours
			present, err := DecodeFlexible(json.RawMessage(tt.raw), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.present, present)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeFlexibleLoose(t *testing.T) {
	var got []hours
	present, err := DecodeFlexibleLoose(json.RawMessage(`"[{\"day\":\"Monday\",\"serviceId\":\"abc\",\"openingTime\":\"09:00\"}]"`), &got)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, []hours{{"Monday", "09:00"}}, got)

	_, err = DecodeFlexibleLoose(json.RawMessage(`[] []`), &got)
	assert.Error(t, err)
	_, err = DecodeFlexibleLoose(json.RawMessage(`{"day":1}`), &got)
	assert.Error(t, err)
}
