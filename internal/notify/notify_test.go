package notify

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/zapconfeitaria/api/internal/database"
	"github.com/zapconfeitaria/api/internal/enum"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func pgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: true}
}

func client(name string, birthday time.Time) database.Client {
	c := database.Client{ID: uuid.New(), Name: name}
	if !birthday.IsZero() {
		c.Birthday = pgDate(birthday)
	}
	return c
}

func TestBuild_DeliveryWithinWindow(t *testing.T) {
	now := day(2026, 3, 10)
	maria := client("Maria", time.Time{})
	orders := []database.Order{
		{ID: uuid.New(), OrderNumber: 7, ClientID: maria.ID, Status: enum.OrderStatusInProduction,
			DeliveryDate: pgDate(day(2026, 3, 12)), CreatedAt: day(2026, 3, 1)},
		{ID: uuid.New(), OrderNumber: 8, ClientID: maria.ID, Status: enum.OrderStatusReady,
			DeliveryDate: pgDate(day(2026, 3, 25)), CreatedAt: day(2026, 3, 1)}, // beyond window
	}

	out := Build(now, []database.Client{maria}, orders)

	if len(out) != 1 {
		t.Fatalf("expected 1 reminder, got %d: %v", len(out), out)
	}
	if out[0].Type != TypeDelivery {
		t.Errorf("type: got %v, want DELIVERY", out[0].Type)
	}
	if out[0].Priority != PriorityMedium {
		t.Errorf("priority 2 days out: got %v, want MEDIUM", out[0].Priority)
	}
}

func TestBuild_DeliveryTodayIsHighPriority(t *testing.T) {
	now := day(2026, 3, 10)
	maria := client("Maria", time.Time{})
	orders := []database.Order{
		{ID: uuid.New(), OrderNumber: 3, ClientID: maria.ID, Status: enum.OrderStatusReady,
			DeliveryDate: pgDate(day(2026, 3, 10)), CreatedAt: day(2026, 3, 9)},
	}

	out := Build(now, []database.Client{maria}, orders)
	if len(out) != 1 || out[0].Priority != PriorityHigh {
		t.Fatalf("expected one HIGH reminder, got %v", out)
	}
}

func TestBuild_DeliveredAndCancelledSkipped(t *testing.T) {
	now := day(2026, 3, 10)
	maria := client("Maria", time.Time{})
	orders := []database.Order{
		{ID: uuid.New(), ClientID: maria.ID, Status: enum.OrderStatusDelivered,
			DeliveryDate: pgDate(day(2026, 3, 11)), CreatedAt: day(2026, 3, 1)},
		{ID: uuid.New(), ClientID: maria.ID, Status: enum.OrderStatusCancelled,
			DeliveryDate: pgDate(day(2026, 3, 11)), CreatedAt: day(2026, 3, 1)},
	}

	if out := Build(now, []database.Client{maria}, orders); len(out) != 0 {
		t.Fatalf("expected no reminders, got %v", out)
	}
}

func TestBuild_BirthdayYearRollover(t *testing.T) {
	// Dec 30 today; birthday Jan 2 of any past year should still show up.
	now := day(2026, 12, 30)
	ana := client("Ana", day(1990, 1, 2))

	out := Build(now, []database.Client{ana}, nil)

	if len(out) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(out))
	}
	if out[0].Type != TypeBirthday {
		t.Errorf("type: got %v, want BIRTHDAY", out[0].Type)
	}
	if got := out[0].Date; got != day(2027, 1, 2) {
		t.Errorf("date: got %v, want 2027-01-02", got)
	}
}

func TestBuild_BirthdayTodayIsMedium(t *testing.T) {
	now := day(2026, 5, 15)
	ana := client("Ana", day(1992, 5, 15))

	out := Build(now, []database.Client{ana}, nil)
	if len(out) != 1 || out[0].Priority != PriorityMedium {
		t.Fatalf("expected one MEDIUM reminder, got %v", out)
	}
}

func TestBuild_BirthdayOutsideWindowSkipped(t *testing.T) {
	now := day(2026, 5, 15)
	ana := client("Ana", day(1992, 5, 30))

	if out := Build(now, []database.Client{ana}, nil); len(out) != 0 {
		t.Fatalf("expected no reminders, got %v", out)
	}
}

func TestBuild_OverdueDeposit(t *testing.T) {
	now := day(2026, 3, 10)
	maria := client("Maria", time.Time{})
	orders := []database.Order{
		{ID: uuid.New(), OrderNumber: 12, ClientID: maria.ID, Status: enum.OrderStatusQuote,
			CreatedAt: day(2026, 3, 1)}, // 9 days old, no deposit
		{ID: uuid.New(), OrderNumber: 13, ClientID: maria.ID, Status: enum.OrderStatusQuote,
			CreatedAt: day(2026, 3, 8)}, // only 2 days old
		{ID: uuid.New(), OrderNumber: 14, ClientID: maria.ID, Status: enum.OrderStatusInProduction,
			CreatedAt: day(2026, 2, 1)}, // wrong status
		{ID: uuid.New(), OrderNumber: 15, ClientID: maria.ID, Status: enum.OrderStatusQuote,
			DepositPaid: true, CreatedAt: day(2026, 2, 1)}, // already paid
	}

	out := Build(now, []database.Client{maria}, orders)

	if len(out) != 1 {
		t.Fatalf("expected 1 reminder, got %d: %v", len(out), out)
	}
	if out[0].Type != TypeDeposit || out[0].Priority != PriorityHigh {
		t.Errorf("got %v/%v, want OVERDUE_DEPOSIT/HIGH", out[0].Type, out[0].Priority)
	}
}

func TestBuild_SortedByPriorityThenDate(t *testing.T) {
	now := day(2026, 3, 10)
	maria := client("Maria", time.Time{})
	ana := client("Ana", day(1990, 3, 14))
	orders := []database.Order{
		// MEDIUM delivery on the 13th
		{ID: uuid.New(), OrderNumber: 1, ClientID: maria.ID, Status: enum.OrderStatusInProduction,
			DeliveryDate: pgDate(day(2026, 3, 13)), CreatedAt: day(2026, 3, 9)},
		// HIGH overdue deposit from the 1st
		{ID: uuid.New(), OrderNumber: 2, ClientID: maria.ID, Status: enum.OrderStatusQuote,
			CreatedAt: day(2026, 3, 1)},
		// HIGH delivery tomorrow
		{ID: uuid.New(), OrderNumber: 3, ClientID: maria.ID, Status: enum.OrderStatusReady,
			DeliveryDate: pgDate(day(2026, 3, 11)), CreatedAt: day(2026, 3, 9)},
	}

	out := Build(now, []database.Client{maria, ana}, orders)

	if len(out) != 4 {
		t.Fatalf("expected 4 reminders, got %d", len(out))
	}
	// HIGH first (deposit from Mar 1 sorts before delivery on Mar 11),
	// then MEDIUM delivery, then LOW birthday.
	if out[0].Type != TypeDeposit {
		t.Errorf("first: got %v, want OVERDUE_DEPOSIT", out[0].Type)
	}
	if out[1].Type != TypeDelivery || out[1].Priority != PriorityHigh {
		t.Errorf("second: got %v/%v, want DELIVERY/HIGH", out[1].Type, out[1].Priority)
	}
	if out[2].Priority != PriorityMedium {
		t.Errorf("third priority: got %v, want MEDIUM", out[2].Priority)
	}
	if out[3].Type != TypeBirthday || out[3].Priority != PriorityLow {
		t.Errorf("fourth: got %v/%v, want BIRTHDAY/LOW", out[3].Type, out[3].Priority)
	}
}
