package main

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/geosurvey/internal/adapters/nats"
	"github.com/samirrijal/geosurvey/internal/adapters/postgres"
	"github.com/samirrijal/geosurvey/internal/core/domain"
	"github.com/samirrijal/geosurvey/internal/core/ports"
	"github.com/samirrijal/geosurvey/internal/core/usecases"
	"github.com/samirrijal/geosurvey/internal/pkg/config"
	"github.com/samirrijal/geosurvey/internal/pkg/logging"
	"github.com/samirrijal/geosurvey/internal/workflows"
)

func main() {
	cfg, err := config.Load("geosurvey-reporter")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, reports will not be broadcast", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	reports := usecases.NewReportService(postgres.NewSurveyRepo(db), postgres.NewResponseRepo(db), publisher)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.SurveyReportWorkflow)
	w.RegisterActivity(&workflows.ReportActivities{Reports: reports})

	// Every stored response triggers a report rebuild
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "report-builder")
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeResponseSubmitted(ctx, func(ctx context.Context, ev *domain.ResponseSubmitted) error {
		in := workflows.ReportInput{SurveyID: ev.SurveyID, ResponseID: ev.ResponseID}
		_, err := c.ExecuteWorkflow(ctx, workflows.StartOptions(in, cfg.Temporal.TaskQueue), workflows.SurveyReportWorkflow, in)
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			return nil
		}
		if err != nil {
			slog.Error("start report workflow", "survey_id", ev.SurveyID, "error", err)
		}
		return err
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("reporter worker starting", "queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
