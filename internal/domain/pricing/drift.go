package pricing

import (
	"fmt"
	"strconv"
)

// Drift is one value that changed between a stored quote and its recomputation.
type Drift struct {
	Field      string
	Stored     string
	Recomputed string
}

func (d Drift) String() string {
	return fmt.Sprintf("%s: %s -> %s", d.Field, d.Stored, d.Recomputed)
}

// Diff lists every billed value that differs between stored and recomputed.
// An empty result means recomputation is a no-op.
func Diff(stored, recomputed Quote) []Drift {
	var out []Drift
	add := func(field string, a, b fmt.Stringer) {
		if a.String() != b.String() {
			out = append(out, Drift{Field: field, Stored: a.String(), Recomputed: b.String()})
		}
	}
	addInt := func(field string, a, b int) {
		if a != b {
			out = append(out, Drift{Field: field, Stored: strconv.Itoa(a), Recomputed: strconv.Itoa(b)})
		}
	}

	add("first_period_end", stored.FirstPeriodEnd, recomputed.FirstPeriodEnd)
	addInt("first_period_nights", stored.FirstPeriodNights, recomputed.FirstPeriodNights)
	add("first_period_amount", stored.FirstPeriodAmount, recomputed.FirstPeriodAmount)
	add("move_in_fee", stored.MoveInFee, recomputed.MoveInFee)
	add("deposit", stored.Deposit, recomputed.Deposit)
	add("total_due_now", stored.TotalDueNow, recomputed.TotalDueNow)
	addInt("schedule_length", len(stored.Schedule), len(recomputed.Schedule))

	n := min(len(stored.Schedule), len(recomputed.Schedule))
	for i := 0; i < n; i++ {
		a, b := stored.Schedule[i], recomputed.Schedule[i]
		prefix := fmt.Sprintf("schedule[%d].", i)
		add(prefix+"due_at", a.DueAt, b.DueAt)
		if a.CoverageLabel() != b.CoverageLabel() {
			out = append(out, Drift{Field: prefix + "coverage", Stored: a.CoverageLabel(), Recomputed: b.CoverageLabel()})
		}
		add(prefix+"amount", a.Amount, b.Amount)
	}
	return out
}
