package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geosurvey/internal/core/domain"
)

const (
	StreamName = "SURVEY_EVENTS"

	subjectResponses = "survey.responses."
	subjectReports   = "survey.reports."

	// ResponsesWildcard matches every response submitted event.
	ResponsesWildcard = subjectResponses + ">"
	// ReportsWildcard matches every report event.
	ReportsWildcard = subjectReports + ">"
)

// ResponseSubject returns the subject for responses to a survey.
func ResponseSubject(surveyID int64) string {
	return subjectResponses + strconv.FormatInt(surveyID, 10)
}

// ReportSubject returns the subject for reports of a survey.
func ReportSubject(surveyID int64) string {
	return subjectReports + strconv.FormatInt(surveyID, 10)
}

// StreamConfig is the JetStream stream holding all survey events.
func StreamConfig() nats.StreamConfig {
	return nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"survey.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	cfg := StreamConfig()
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

func (p *Publisher) PublishResponseSubmitted(ctx context.Context, event *domain.ResponseSubmitted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ResponseSubject(event.SurveyID), data, nats.Context(ctx),
		nats.MsgId(fmt.Sprintf("response-%d", event.ResponseID)))
	return err
}

func (p *Publisher) PublishReport(ctx context.Context, report *domain.SurveyReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ReportSubject(report.SurveyID), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for readiness checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("geosurvey"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
