package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/internal/notify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const tickTimeout = 30 * time.Second

// Store is the task surface the reminder loop needs. MarkTaskNotified flips
// the reminder flag only if it is still unset and reports whether this caller
// won; a false result means another worker already sent the reminder.
type Store interface {
	GetDueUnnotifiedTasks(ctx context.Context, from, to time.Time) ([]model.Task, error)
	MarkTaskNotified(ctx context.Context, taskID uuid.UUID) (bool, error)
}

// Scheduler sends task reminders ahead of their due time. Each tick covers
// the window between the previous tick's target minute and the current one,
// so a failed tick is retried on the next: the window only advances once its
// tasks have been processed, and the conditional mark keeps retried tasks
// at most-once.
type Scheduler struct {
	store      Store
	resolver   *notify.Resolver
	dispatcher *notify.Dispatcher
	logger     *logrus.Logger
	lead       time.Duration
	interval   time.Duration

	// prev is the end of the last fully processed window. Zero until the
	// first successful tick.
	prev time.Time
}

func New(store Store, resolver *notify.Resolver, dispatcher *notify.Dispatcher, logger *logrus.Logger, lead, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:      store,
		resolver:   resolver,
		dispatcher: dispatcher,
		logger:     logger,
		lead:       lead,
		interval:   interval,
	}
}

// DueTarget quantizes now+lead down to the minute tasks store their
// deadlines at.
func DueTarget(now time.Time, lead time.Duration) time.Time {
	return now.Add(lead).Truncate(time.Minute)
}

// Run blocks until ctx is cancelled. Tick failures are logged and the loop
// keeps going; a bad minute never stops the scheduler.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.WithFields(logrus.Fields{
		"lead":     s.lead.String(),
		"interval": s.interval.String(),
	}).Info("reminder scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder scheduler stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick processes every unnotified task due in (prev, now+lead]. The window
// advances only when every task in it was either reminded or lost the mark
// race; a store outage or a resolution failure leaves it in place so the
// same tasks come back on the next tick.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	target := DueTarget(now, s.lead)
	if s.prev.IsZero() {
		s.prev = target.Add(-s.interval)
	}
	from := s.prev
	if !target.After(from) {
		return
	}

	tasks, err := s.store.GetDueUnnotifiedTasks(ctx, from, target)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"from": from.Format("2006-01-02 15:04"),
			"to":   target.Format("2006-01-02 15:04"),
		}).Error("failed to load due tasks")
		return
	}

	complete := true
	for _, task := range tasks {
		if err := s.remind(ctx, task); err != nil {
			complete = false
		}
	}
	if complete {
		s.prev = target
	}
}

func (s *Scheduler) remind(ctx context.Context, task model.Task) error {
	skill := ""
	if task.RequiredSkill != nil {
		skill = *task.RequiredSkill
	}

	members, err := s.resolver.Resolve(ctx, task.CircleID, uuid.Nil, skill, dueMoment(task))
	if err != nil {
		s.logger.WithError(err).WithField("task_id", task.ID).Error("failed to resolve reminder recipients")
		return err
	}

	report := s.dispatcher.Dispatch(ctx, notify.Tokens(members),
		"Upcoming task: "+task.Title,
		fmt.Sprintf("%s is due at %s.", task.Title, task.DueTime),
		map[string]string{
			"type":      "task_reminder",
			"task_id":   task.ID.String(),
			"circle_id": task.CircleID.String(),
		})

	// Mark regardless of how many recipients there were; a reminder with
	// nobody to notify is still spent.
	marked, err := s.store.MarkTaskNotified(ctx, task.ID)
	if err != nil {
		s.logger.WithError(err).WithField("task_id", task.ID).Error("failed to mark reminder sent")
		return err
	}
	if !marked {
		s.logger.WithField("task_id", task.ID).Debug("reminder already sent elsewhere")
		return nil
	}

	s.logger.WithFields(logrus.Fields{
		"task_id":    task.ID,
		"recipients": len(members),
		"sent":       report.SuccessCount,
		"failed":     len(report.Failures),
	}).Info("task reminder dispatched")
	return nil
}

// dueMoment combines the task's date and clock into the instant the
// availability filter evaluates against. A malformed clock disables the
// filter rather than blocking the reminder.
func dueMoment(task model.Task) *time.Time {
	clock, err := time.Parse("15:04", task.DueTime)
	if err != nil {
		return nil
	}
	d := task.DueDate
	at := time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local)
	return &at
}
