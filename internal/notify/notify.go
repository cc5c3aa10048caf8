// Package notify computes the reminder feed: upcoming deliveries, client
// birthdays, and quotes whose deposit never arrived.
package notify

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/enum"
)

const (
	TypeDelivery = "DELIVERY"
	TypeBirthday = "BIRTHDAY"
	TypeDeposit  = "OVERDUE_DEPOSIT"

	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// lookahead for deliveries and birthdays; deposits are overdue after this long.
const windowDays = 7

// Reminder is one entry in the notification feed.
type Reminder struct {
	Type     string    `json:"type"`
	Priority string    `json:"priority"`
	Date     time.Time `json:"date"`
	Message  string    `json:"message"`
	ClientID uuid.UUID `json:"client_id,omitempty"`
	OrderID  uuid.UUID `json:"order_id,omitempty"`
}

// Build assembles the reminder feed for one account as of now.
// Orders must be the account's open orders (not delivered, not cancelled);
// client names are resolved through the clients slice.
func Build(now time.Time, clients []database.Client, orders []database.Order) []Reminder {
	today := truncateDay(now)
	horizon := today.AddDate(0, 0, windowDays)

	names := make(map[uuid.UUID]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	var out []Reminder
	out = append(out, deliveryReminders(today, horizon, orders, names)...)
	out = append(out, birthdayReminders(today, horizon, clients)...)
	out = append(out, depositReminders(today, orders, names)...)

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := priorityRank(out[i].Priority), priorityRank(out[j].Priority)
		if pi != pj {
			return pi < pj
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func deliveryReminders(today, horizon time.Time, orders []database.Order, names map[uuid.UUID]string) []Reminder {
	var out []Reminder
	for _, o := range orders {
		if o.Status == enum.OrderStatusDelivered || o.Status == enum.OrderStatusCancelled {
			continue
		}
		if !o.DeliveryDate.Valid {
			continue
		}
		due := truncateDay(o.DeliveryDate.Time)
		if due.Before(today) || due.After(horizon) {
			continue
		}

		priority := PriorityMedium
		if !due.After(today.AddDate(0, 0, 1)) {
			// today or tomorrow
			priority = PriorityHigh
		}
		out = append(out, Reminder{
			Type:     TypeDelivery,
			Priority: priority,
			Date:     due,
			Message:  fmt.Sprintf("Entrega #%d para %s em %s", o.OrderNumber, names[o.ClientID], due.Format("02/01")),
			ClientID: o.ClientID,
			OrderID:  o.ID,
		})
	}
	return out
}

func birthdayReminders(today, horizon time.Time, clients []database.Client) []Reminder {
	var out []Reminder
	for _, c := range clients {
		if !c.Birthday.Valid {
			continue
		}
		next := nextBirthday(today, c.Birthday.Time)
		if next.After(horizon) {
			continue
		}

		priority := PriorityLow
		if next.Equal(today) {
			priority = PriorityMedium
		}
		out = append(out, Reminder{
			Type:     TypeBirthday,
			Priority: priority,
			Date:     next,
			Message:  fmt.Sprintf("Aniversário de %s em %s", c.Name, next.Format("02/01")),
			ClientID: c.ID,
		})
	}
	return out
}

func depositReminders(today time.Time, orders []database.Order, names map[uuid.UUID]string) []Reminder {
	var out []Reminder
	for _, o := range orders {
		if o.DepositPaid || o.FullPaymentReceived {
			continue
		}
		if o.Status != enum.OrderStatusQuote && o.Status != enum.OrderStatusAwaitingDeposit {
			continue
		}
		created := truncateDay(o.CreatedAt)
		if today.Sub(created) < windowDays*24*time.Hour {
			continue
		}
		out = append(out, Reminder{
			Type:     TypeDeposit,
			Priority: PriorityHigh,
			Date:     created,
			Message:  fmt.Sprintf("Sinal pendente há %d dias no pedido #%d de %s", int(today.Sub(created).Hours()/24), o.OrderNumber, names[o.ClientID]),
			ClientID: o.ClientID,
			OrderID:  o.ID,
		})
	}
	return out
}

// nextBirthday projects a birthday into this year, or next year when it has
// already passed. Feb 29 birthdays land on Mar 1 in non-leap years.
func nextBirthday(today time.Time, birthday time.Time) time.Time {
	next := time.Date(today.Year(), birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(today) {
		next = time.Date(today.Year()+1, birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	}
	return next
}

func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
