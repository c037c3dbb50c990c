// Package alerts simulates broadcasting an emergency request to nearby
// donors. Raised requests are enqueued as jobs; a background worker drains
// the queue on a ticker, counts registered donors matching each request's
// blood group, and reports the result through the notifier.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/venkatnanaji21/Life-line-blood/internal/logger"
	"github.com/venkatnanaji21/Life-line-blood/internal/models"
)

type task struct {
	requestID  string
	bloodGroup models.BloodGroup
}

type donorCounter interface {
	CountDonorsByBloodGroup(ctx context.Context, bloodGroup models.BloodGroup) (int64, error)
}

type notifier interface {
	Notify(message, severity string)
}

// Dispatcher owns the alert queue and the background worker.
type Dispatcher struct {
	queue                    chan *task
	db                       donorCounter
	notifier                 notifier
	delayBetweenQueueFetches time.Duration
	errorChannel             chan error
}

// New returns a Dispatcher with the given queue capacity and fetch delay.
func New(
	db donorCounter,
	notifier notifier,
	channelCapacity int,
	delayBetweenQueueFetches time.Duration,
) *Dispatcher {
	return &Dispatcher{
		db:                       db,
		notifier:                 notifier,
		queue:                    make(chan *task, channelCapacity),
		delayBetweenQueueFetches: delayBetweenQueueFetches,
		errorChannel:             make(chan error, channelCapacity),
	}
}

// ListenErrors forwards worker errors to the callback on a separate goroutine.
func (d *Dispatcher) ListenErrors(callback func(error)) {
	go func() {
		for err := range d.errorChannel {
			callback(err)
		}
	}()
}

// EnqueueJob schedules a donor search for a freshly raised request.
func (d *Dispatcher) EnqueueJob(job *models.DonorAlertJob) {
	d.queue <- &task{
		requestID:  job.RequestID,
		bloodGroup: job.BloodGroup,
	}
}

// Run starts the background worker. It stops when the context is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(d.delayBetweenQueueFetches)
		defer ticker.Stop()

		var tasks []task

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-d.queue:
				tasks = append(tasks, *t)
			case <-ticker.C:
				if len(tasks) == 0 {
					continue
				}
				if err := d.processTasks(ctx, tasks); err != nil {
					d.errorChannel <- err
					continue
				}
				logger.Log.Infof("processed %d donor alert(s)", len(tasks))
				tasks = nil
			}
		}
	}()
}

func (d *Dispatcher) processTasks(ctx context.Context, tasks []task) error {
	for _, t := range tasks {
		donors, err := d.db.CountDonorsByBloodGroup(ctx, t.bloodGroup)
		if err != nil {
			return err
		}

		if donors == 0 {
			d.notifier.Notify(
				fmt.Sprintf("No %s donors registered yet for request %s.", t.bloodGroup, t.requestID),
				"info",
			)
			continue
		}

		d.notifier.Notify(
			fmt.Sprintf("%d donor(s) found nearby for request %s!", donors, t.requestID),
			"success",
		)
	}

	return nil
}
