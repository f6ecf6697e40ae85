package boot

import (
	"context"
	"log"
	"time"

	"github.com/santupramanik23/my-guide-backend/src/common"
	"github.com/santupramanik23/my-guide-backend/src/config"
	"github.com/santupramanik23/my-guide-backend/src/controllers"
	"github.com/santupramanik23/my-guide-backend/src/db"
	"github.com/santupramanik23/my-guide-backend/src/lib"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/repositories"
	"gorm.io/gorm"
)

const (
	JOB_REMINDERS = "booking-reminders"
	JOB_RECONCILE = "payment-reconcile"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.Place{},
		&models.Activity{},
		&models.Booking{},
		&models.Payment{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// Stores holds the persistence backends the controllers run on.
type Stores struct {
	Bookings controllers.BookingStore
	Payments controllers.PaymentStore
	Items    controllers.ItemLookup
}

// InitStores picks the store driver. "memory" keeps everything in process and
// anything else runs on postgres.
func InitStores(cfg *config.Config) Stores {
	if cfg.StoreDriver == "memory" {
		log.Println("Using in-memory store")
		mem := repositories.NewMemoryStore()
		return Stores{Bookings: mem.Bookings, Payments: mem.Payments, Items: mem.Items}
	}
	gdb := InitDb()
	return Stores{
		Bookings: repositories.NewBookingRepository(gdb),
		Payments: repositories.NewPaymentRepository(gdb),
		Items:    repositories.NewItemRepository(gdb),
	}
}

// Jobs is what the background scheduler runs.
type Jobs struct {
	Bookings controllers.BookingStore
	Items    controllers.ItemLookup
	Notifier controllers.Notifier
	Payments *controllers.Payments
	Config   *config.Config
}

func (j Jobs) sendReminders() {
	ctx := context.Background()
	if _, err := common.SendUpcomingReminders(ctx, j.Bookings, j.Items, j.Notifier, j.Config.NotifyTimeout, time.Now()); err != nil {
		log.Printf("Error running reminders job: %s\n", err.Error())
	}
}

func (j Jobs) reconcilePayments() {
	n, err := j.Payments.Reconcile(context.Background())
	if err != nil {
		log.Printf("Error running reconcile job: %s\n", err.Error())
	}
	if n > 0 {
		log.Printf("[reconcile] %d bookings settled\n", n)
	}
}

func InitScheduler(jobs Jobs) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if jobs.Notifier != nil {
		if _, err := lib.CreateCronJob(JOB_REMINDERS, jobs.Config.ReminderCron, jobs.sendReminders); err != nil {
			log.Printf("Error scheduling %s: %s\n", JOB_REMINDERS, err.Error())
		}
	}
	if jobs.Payments != nil && jobs.Config.ReconcileInterval > 0 {
		if _, err := lib.CreateDurationJob(JOB_RECONCILE, jobs.Config.ReconcileInterval, jobs.reconcilePayments); err != nil {
			log.Printf("Error scheduling %s: %s\n", JOB_RECONCILE, err.Error())
		}
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}
