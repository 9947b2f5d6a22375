package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/oremusapp/oremus-backend/internal/intentions"
	"github.com/oremusapp/oremus-backend/internal/notifications"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	"github.com/oremusapp/oremus-backend/pkg/logger"
	"github.com/oremusapp/oremus-backend/pkg/types"
)

const defaultReminderWindow = 48 * time.Hour

// reminderTrigger keys the uniqueness triple so repeated job runs never
// enqueue a second reminder for the same order.
const reminderTrigger = "reminder:2d"

type ReminderJobParams struct {
	Logger     *logger.Logger
	Intentions intentions.Repository
	Scheduler  notifications.Scheduler
	Window     time.Duration
}

// NewReminderJob enqueues reminders for paid intentions whose mass date
// falls inside the window.
func NewReminderJob(params ReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Intentions == nil {
		return nil, fmt.Errorf("intentions repository required")
	}
	if params.Scheduler == nil {
		return nil, fmt.Errorf("scheduler required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultReminderWindow
	}
	return &reminderJob{
		logg:       params.Logger,
		intentions: params.Intentions,
		scheduler:  params.Scheduler,
		window:     window,
		now:        time.Now,
	}, nil
}

type reminderJob struct {
	logg       *logger.Logger
	intentions intentions.Repository
	scheduler  notifications.Scheduler
	window     time.Duration
	now        func() time.Time
}

func (j *reminderJob) Name() string { return "intention-reminders" }

func (j *reminderJob) Run(ctx context.Context) error {
	from := j.now().UTC()
	to := from.Add(j.window)

	upcoming, err := j.intentions.ListPaidInWindow(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list upcoming intentions: %w", err)
	}

	enqueued := 0
	for i := range upcoming {
		intention := upcoming[i]
		orderID := intention.ID
		created, err := j.scheduler.Schedule(ctx, notifications.ScheduleParams{
			UserID:  intention.UserID,
			OrderID: &orderID,
			Type:    enums.NotificationTypeIntentionReminder,
			Trigger: reminderTrigger,
			Title:   "Upcoming Mass reminder",
			Payload: types.JSONMap{
				"intention_for": intention.IntentionFor,
				"mass_date":     intention.MassDate.Format("2006-01-02"),
			},
		})
		if err != nil {
			return fmt.Errorf("enqueue reminder for %s: %w", intention.ID, err)
		}
		if created {
			enqueued++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"window_hours": j.window.Hours(),
		"candidates":   len(upcoming),
		"enqueued":     enqueued,
	})
	j.logg.Info(logCtx, "intention reminders complete")
	return nil
}
