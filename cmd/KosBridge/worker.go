package main

import (
	"context"
	"fmt"
	"time"

	"KosBridge/internal/biz"
	"KosBridge/internal/conf"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/robfig/cron/v3"
)

// StartRetryCron schedules the product change retry worker at the configured
// interval. One cycle drains at most one batch; overlapping cycles only cost
// no-op claims since each record is claimed conditionally.
func StartRetryCron(task *biz.RetryTask, c *conf.Worker, logger log.Logger) *cron.Cron {
	helper := log.NewHelper(logger)

	interval := 60 * time.Second
	if c.RetryInterval != nil && c.RetryInterval.AsDuration() > 0 {
		interval = c.RetryInterval.AsDuration()
	}

	cr := cron.New()
	_, err := cr.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()

		if err := task.ProcessQueued(ctx); err != nil {
			helper.Errorw("msg", "retry worker cycle failed", "error", err)
		}
	})
	if err != nil {
		helper.Errorw("msg", "failed to register retry cron job", "error", err)
		return nil
	}

	cr.Start()
	helper.Infow("msg", "retry worker started", "interval", interval.String())

	return cr
}

// newApp assembles the Kratos application: the HTTP server plus the retry
// worker tied to the application lifecycle.
func newApp(logger log.Logger, hs *khttp.Server, task *biz.RetryTask, wc *conf.Worker) *kratos.App {
	var retryCron *cron.Cron

	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs),
		kratos.BeforeStart(func(context.Context) error {
			retryCron = StartRetryCron(task, wc, logger)
			return nil
		}),
		kratos.AfterStop(func(context.Context) error {
			if retryCron != nil {
				retryCron.Stop()
			}
			return nil
		}),
	)
}
