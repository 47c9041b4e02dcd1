// Package report aggregates survey responses for the reporting views.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samirrijal/geosurvey/internal/core/domain"
)

// AggregateOptionCounts pools every selected answer across all questions
// into one frequency table. Non-string answers are keyed by their compact
// JSON text. String answers are keyed by their value unless that value is
// itself valid JSON ("1", "true", "[]"), in which case the quoted form is
// used so it stays apart from the number, boolean or array it spells. Responses whose answer map cannot
// be decoded are skipped and reported in the returned error slice.
func AggregateOptionCounts(responses []domain.SurveyResponse) (map[string]int, []error) {
	counts := make(map[string]int)
	var errs []error

	for _, r := range responses {
		var answers map[string]json.RawMessage
		if err := json.Unmarshal(r.Responses, &answers); err != nil {
			errs = append(errs, &domain.DecodeError{Field: "responses", RecordID: r.ID, Err: err})
			continue
		}
		if answers == nil {
			errs = append(errs, &domain.DecodeError{Field: "responses", RecordID: r.ID, Err: fmt.Errorf("not an object")})
			continue
		}
		for _, v := range answers {
			counts[answerKey(v)]++
		}
	}
	return counts, errs
}

func answerKey(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil && !json.Valid([]byte(s)) {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}

// ExtractValidCoordinates returns the decodable locations of responses,
// skipping absent, "Unknown" and malformed entries.
func ExtractValidCoordinates(responses []domain.SurveyResponse) []domain.GeoPoint {
	points := make([]domain.GeoPoint, 0, len(responses))
	for _, r := range responses {
		p, err := domain.ParseLocation(r.Location)
		if err != nil || p == nil {
			continue
		}
		points = append(points, *p)
	}
	return points
}

// Build assembles the full report for a survey.
func Build(survey *domain.Survey, responses []domain.SurveyResponse, now time.Time) (domain.SurveyReport, []error) {
	counts, errs := AggregateOptionCounts(responses)
	return domain.SurveyReport{
		SurveyID:       survey.ID,
		SurveyName:     survey.Name,
		TotalResponses: len(responses),
		OptionCounts:   counts,
		Coordinates:    ExtractValidCoordinates(responses),
		DecodeErrors:   len(errs),
		GeneratedAt:    now.UTC(),
	}, errs
}
