package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testPlan() *DCAPlan {
	return &DCAPlan{
		ID:         1,
		AccountID:  1,
		Ticker:     "VOO",
		Amount:     decimal.NewFromInt(500),
		DayOfMonth: 15,
		Hour:       10,
		Minute:     30,
		Enabled:    true,
	}
}

func TestDCAPlanIsDue_BeforeScheduledTime(t *testing.T) {
	plan := testPlan()
	now := time.Date(2025, 3, 15, 10, 29, 0, 0, time.UTC)

	if plan.IsDue(now) {
		t.Error("Plan should not be due before its scheduled time")
	}
}

func TestDCAPlanIsDue_AtScheduledTime(t *testing.T) {
	plan := testPlan()
	now := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

	if !plan.IsDue(now) {
		t.Error("Plan should be due at its scheduled time")
	}
}

func TestDCAPlanIsDue_LaterSameMonth(t *testing.T) {
	plan := testPlan()
	now := time.Date(2025, 3, 28, 9, 0, 0, 0, time.UTC)

	if !plan.IsDue(now) {
		t.Error("Plan should still be due later in the month when it never ran")
	}
}

func TestDCAPlanIsDue_AlreadyRanThisMonth(t *testing.T) {
	plan := testPlan()
	ran := time.Date(2025, 3, 15, 10, 31, 0, 0, time.UTC)
	plan.LastRunAt = &ran

	now := time.Date(2025, 3, 20, 10, 30, 0, 0, time.UTC)
	if plan.IsDue(now) {
		t.Error("Plan should not be due twice in the same month")
	}
}

func TestDCAPlanIsDue_RanLastMonth(t *testing.T) {
	plan := testPlan()
	ran := time.Date(2025, 2, 15, 10, 30, 0, 0, time.UTC)
	plan.LastRunAt = &ran

	now := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)
	if !plan.IsDue(now) {
		t.Error("Plan should be due again the following month")
	}
}

func TestDCAPlanIsDue_Disabled(t *testing.T) {
	plan := testPlan()
	plan.Enabled = false

	now := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)
	if plan.IsDue(now) {
		t.Error("Disabled plan should never be due")
	}
}

func TestDCAPlanIsDue_ShortMonthClamped(t *testing.T) {
	plan := testPlan()
	plan.DayOfMonth = 31

	// February 2025 has 28 days; day 31 clamps to the 28th.
	now := time.Date(2025, 2, 28, 10, 30, 0, 0, time.UTC)
	if !plan.IsDue(now) {
		t.Error("Plan scheduled for day 31 should clamp to the last day of February")
	}
}
