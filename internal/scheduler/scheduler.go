// Package scheduler runs the daily reminder fan-out. Every morning it builds
// each account's reminder feed and pushes it into the account's websocket
// room, so an open PWA shows the day's deliveries without a refresh.
package scheduler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/notify"
	"github.com/zapconfeitaria/api/internal/ws"
)

// reminderSpec fires at 09:00 server time every day.
const reminderSpec = "0 9 * * *"

// Store defines the database methods the scheduler needs.
// Satisfied by *database.Queries.
type Store interface {
	ListAccountIDs(ctx context.Context) ([]uuid.UUID, error)
	ListActiveClients(ctx context.Context, accountID uuid.UUID) ([]database.Client, error)
	ListOpenOrders(ctx context.Context, accountID uuid.UUID) ([]database.Order, error)
}

// Broadcaster pushes events to an account's websocket room.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToAccount(accountID uuid.UUID, event ws.Event)
}

// Scheduler owns the cron instance.
type Scheduler struct {
	store Store
	hub   Broadcaster
	cron  *cron.Cron
	now   func() time.Time
}

// New creates a Scheduler. Call Start to begin ticking.
func New(store Store, hub Broadcaster) *Scheduler {
	return &Scheduler{
		store: store,
		hub:   hub,
		cron:  cron.New(),
		now:   time.Now,
	}
}

// Start registers the daily job and starts the cron loop in its own
// goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(reminderSpec, s.runDailyReminders); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runDailyReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	accounts, err := s.store.ListAccountIDs(ctx)
	if err != nil {
		log.Printf("ERROR: scheduler list accounts: %v", err)
		return
	}

	for _, accountID := range accounts {
		if err := s.notifyAccount(ctx, accountID); err != nil {
			// One bad account must not starve the rest of the fan-out.
			log.Printf("ERROR: scheduler account %s: %v", accountID, err)
		}
	}
}

// notifyAccount builds and broadcasts one account's reminder feed. Accounts
// with nothing due stay silent.
func (s *Scheduler) notifyAccount(ctx context.Context, accountID uuid.UUID) error {
	clients, err := s.store.ListActiveClients(ctx, accountID)
	if err != nil {
		return err
	}
	orders, err := s.store.ListOpenOrders(ctx, accountID)
	if err != nil {
		return err
	}

	reminders := notify.Build(s.now(), clients, orders)
	if len(reminders) == 0 {
		return nil
	}

	payload, err := json.Marshal(reminders)
	if err != nil {
		return err
	}

	s.hub.BroadcastToAccount(accountID, ws.Event{Type: "reminders", Payload: payload})
	return nil
}
