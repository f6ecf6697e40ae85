package lib

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

var scheduler gocron.Scheduler

func NewScheduler(s gocron.Scheduler) {
	scheduler = s
}

func GetScheduler() (gocron.Scheduler, error) {
	if scheduler != nil {
		return scheduler, nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("Error initializing Scheduler: %s\n", err.Error())
		return nil, err
	}
	scheduler = sched
	return sched, nil
}

// CreateCronJob registers handler on a crontab schedule. Overlapping runs are skipped.
func CreateCronJob(name string, crontab string, handler any, args ...any) (*string, error) {
	return createJob(name, gocron.CronJob(crontab, false), handler, args...)
}

// CreateDurationJob registers handler to run every interval. Overlapping runs are skipped.
func CreateDurationJob(name string, interval time.Duration, handler any, args ...any) (*string, error) {
	return createJob(name, gocron.DurationJob(interval), handler, args...)
}

func createJob(name string, def gocron.JobDefinition, handler any, args ...any) (*string, error) {
	sched, err := GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return nil, err
	}
	j, err := sched.NewJob(
		def,
		gocron.NewTask(handler, args...),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}
	id := j.ID().String()
	log.Printf("Job: %s %s\n", id, j.Name())
	return &id, nil
}
