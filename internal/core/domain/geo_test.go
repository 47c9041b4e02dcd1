package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/geosurvey/internal/core/domain"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *domain.GeoPoint
		wantErr bool
	}{
		{name: "empty", raw: ``},
		{name: "null", raw: `null`},
		{name: "empty string", raw: `""`},
		{name: "unknown sentinel", raw: `"Unknown"`},
		{name: "object", raw: `{"latitude": 43.26, "longitude": -2.93}`, want: &domain.GeoPoint{Latitude: 43.26, Longitude: -2.93}},
		{name: "stringified object", raw: `"{\"latitude\":1.5,\"longitude\":2.5}"`, want: &domain.GeoPoint{Latitude: 1.5, Longitude: 2.5}},
		{name: "zero coordinates", raw: `{"latitude":0,"longitude":0}`, want: &domain.GeoPoint{}},
		{name: "missing longitude", raw: `{"latitude": 1}`, wantErr: true},
		{name: "string coordinates", raw: `{"latitude":"1","longitude":"2"}`, wantErr: true},
		{name: "plain text", raw: `"somewhere"`, wantErr: true},
		{name: "array", raw: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseLocation(json.RawMessage(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeLocation_RoundTrip(t *testing.T) {
	p := &domain.GeoPoint{Latitude: -33.5, Longitude: 151.25}
	got, err := domain.ParseLocation(domain.EncodeLocation(p))
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Nil(t, domain.EncodeLocation(nil))
}

func TestDecodeError_Unwrap(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := error(&domain.DecodeError{Field: "responses", RecordID: 7, Err: cause})

	assert.True(t, errors.Is(err, domain.ErrDecode))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "record 7")

	var de *domain.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "responses", de.Field)
}

func TestValidationError_IsValidation(t *testing.T) {
	err := domain.NewValidationError("username", "is required")
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, "username: is required", err.Error())
}
