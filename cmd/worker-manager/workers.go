// cmd/worker-manager/workers.go
package main

import (
	"context"
	"time"

	"assessment-workers/internal/assessment/engine"
	"assessment-workers/internal/common/aws"
	"assessment-workers/internal/common/camunda"
	"assessment-workers/internal/common/config"
	"assessment-workers/internal/common/errors"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/common/observability"
	"assessment-workers/internal/common/validation"
	"assessment-workers/internal/notify"
	"assessment-workers/internal/progress"
	"assessment-workers/internal/repository"
	"assessment-workers/internal/search"
	"assessment-workers/pkg/registry"

	cb "assessment-workers/internal/workers/assessment/compare-benchmark"
	nac "assessment-workers/internal/workers/assessment/notify-assessment-completed"
	rar "assessment-workers/internal/workers/assessment/record-assessment-result"
	sap "assessment-workers/internal/workers/assessment/save-assessment-progress"
	sa "assessment-workers/internal/workers/assessment/score-assessment"
	vr "assessment-workers/internal/workers/assessment/validate-assessment-responses"
)

type dependencies struct {
	cfg      *config.Config
	engine   *engine.Engine
	registry *registry.ActivityRegistry
	schemas  map[string]*validation.Schema
	repo     *repository.Repository
	progress *progress.Store
	indexer  *search.ResultIndexer
	obs      *observability.Observability
	log      logger.Logger

	publisher nac.EventPublisher
	mailer    nac.SummaryMailer
}

// initNotifications builds the SNS and SES clients for the enabled channels.
func (d *dependencies) initNotifications(ctx context.Context) error {
	n := d.cfg.Notifications
	if !n.SNS.Enabled && !n.SES.Enabled {
		return nil
	}
	settings := aws.Settings{Region: n.AWS.Region, Endpoint: n.AWS.Endpoint}
	awsCfg, err := aws.LoadConfig(ctx, settings)
	if err != nil {
		return err
	}
	if n.SNS.Enabled {
		d.publisher = notify.NewPublisher(aws.NewSNSClientFromConfig(awsCfg, settings.Endpoint), n.SNS.TopicARN)
	}
	if n.SES.Enabled {
		d.mailer = notify.NewMailer(aws.NewSESClientFromConfig(awsCfg, settings.Endpoint), n.SES.FromEmail)
	}
	return nil
}

// timeout picks the handler deadline: worker config, then the registry
// entry, then the handler's own default.
func (d *dependencies) timeout(taskType string, fallback time.Duration) time.Duration {
	if ms := config.GetWorkerConfig(d.cfg, taskType).Timeout; ms > 0 {
		return config.GetDuration(ms)
	}
	if a, ok := d.registry.Find(taskType); ok {
		if t, err := a.TimeoutDuration(); err == nil && t > 0 {
			return t
		}
	}
	return fallback
}

func registerWorkers(zeebe *camunda.Client, d *dependencies) []*camunda.CamundaWorker {
	var workers []*camunda.CamundaWorker

	start := func(taskType string, handler camunda.JobHandler) {
		if !config.IsWorkerEnabled(d.cfg, taskType) {
			d.log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			return
		}
		wcfg := config.GetWorkerConfig(d.cfg, taskType)
		guarded := camunda.ValidateInput(d.schemas[taskType], handler, errors.NewErrorHandler(d.log))
		w := camunda.NewWorker(
			zeebe.GetClient(),
			taskType,
			wcfg.MaxJobsActive,
			config.GetDuration(wcfg.Timeout),
			guarded,
			d.obs,
			d.log,
		)
		w.Start()
		workers = append(workers, w)
	}

	{
		c := vr.LoadConfig()
		c.Timeout = d.timeout(vr.TaskType, c.Timeout)
		start(vr.TaskType, vr.NewHandler(c, d.engine, d.log))
	}

	{
		c := sap.LoadConfig()
		c.Timeout = d.timeout(sap.TaskType, c.Timeout)
		start(sap.TaskType, sap.NewHandler(c, d.engine, d.progress, d.repo, d.log))
	}

	{
		c := sa.LoadConfig()
		c.Timeout = d.timeout(sa.TaskType, c.Timeout)
		start(sa.TaskType, sa.NewHandler(c, d.engine, d.progress, d.log))
	}

	{
		c := cb.LoadConfig()
		c.Timeout = d.timeout(cb.TaskType, c.Timeout)
		start(cb.TaskType, cb.NewHandler(c, d.engine, d.log))
	}

	{
		c := rar.LoadConfig()
		c.Timeout = d.timeout(rar.TaskType, c.Timeout)
		start(rar.TaskType, rar.NewHandler(c, d.repo, d.indexer, d.progress, d.log))
	}

	{
		c := nac.LoadConfig()
		c.Timeout = d.timeout(nac.TaskType, c.Timeout)
		c.SESEnabled = d.cfg.Notifications.SES.Enabled
		start(nac.TaskType, nac.NewHandler(c, d.publisher, d.mailer, d.log))
	}

	return workers
}
