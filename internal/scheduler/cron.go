package cron

import (
	"context"

	"github.com/Arman334/CrewLink/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartCronJobs wires the background sweeps: layover status rolling and
// notification retention. Both are idempotent, so an overlapping or missed
// tick is harmless.
func StartCronJobs(layoverService *services.LayoverService, notificationService *services.NotificationService) *cron.Cron {
	c := cron.New()

	// Roll upcoming -> current -> past as windows open and close.
	c.AddFunc("@every 10m", func() {
		rolled, err := layoverService.RollStatuses(context.Background())
		if err != nil {
			logrus.WithError(err).Error("RollStatuses failed")
			return
		}
		if rolled > 0 {
			logrus.Infof("Rolled %d layover statuses", rolled)
		}
	})

	// Retention sweep for expired notifications.
	c.AddFunc("@hourly", func() {
		if err := notificationService.DeleteExpired(context.Background()); err != nil {
			logrus.WithError(err).Error("DeleteExpired failed")
		}
	})

	c.Start()
	return c
}
