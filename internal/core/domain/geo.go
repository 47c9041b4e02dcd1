package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GeofenceRadiusKm is the minimum distance between two consecutive
// submissions of the same user (5 meters).
const GeofenceRadiusKm = 0.005

// UnknownLocation is the sentinel clients send when no fix is available.
const UnknownLocation = "Unknown"

// GeoPoint represents a geographic coordinate in degrees (WGS 84).
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ParseLocation decodes a stored or submitted location.
//
// A nil point with a nil error means the location is absent: empty input,
// JSON null, an empty string or the "Unknown" sentinel. Clients may send the
// object itself or a JSON string holding the encoded object.
func ParseLocation(raw json.RawMessage) (*GeoPoint, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("location string: %w", err)
		}
		if s == "" || s == UnknownLocation {
			return nil, nil
		}
		raw = bytes.TrimSpace([]byte(s))
		if len(raw) == 0 || raw[0] != '{' {
			return nil, fmt.Errorf("location %q is not an object", s)
		}
	}

	var v struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("location: %w", err)
	}
	if v.Latitude == nil || v.Longitude == nil {
		return nil, fmt.Errorf("location must have numeric latitude and longitude")
	}
	return &GeoPoint{Latitude: *v.Latitude, Longitude: *v.Longitude}, nil
}

// EncodeLocation returns the canonical stored form of p, or nil when absent.
func EncodeLocation(p *GeoPoint) json.RawMessage {
	if p == nil {
		return nil
	}
	b, _ := json.Marshal(p)
	return b
}
