package process

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/studyhall-ai/studyhall/app/core"
	v1 "github.com/studyhall-ai/studyhall/app/logic/v1"
	"github.com/studyhall-ai/studyhall/pkg/safe"
)

// StartCron schedules the background sweeps, currently only session
// expiry. The sweep is a safety net behind the lazy check on access.
func StartCron(core *core.Core) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("@every 5m", func() {
		safe.Run(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
			defer cancel()

			affected, err := v1.ExpireIdleSessions(ctx, core)
			if err != nil {
				slog.Error("session expiry sweep failed", slog.String("error", err.Error()))
				return
			}
			if affected > 0 {
				slog.Info("session expiry sweep", slog.Int64("expired", affected))
			}
		})
	})
	if err != nil {
		panic(err)
	}

	c.Start()
	return c
}
