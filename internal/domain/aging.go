package domain

import (
	"time"

	"github.com/google/uuid"
)

// AgingItem is a snapshot row for the aging report. DueDate may be zero, in
// which case the creation date stands in for it.
type AgingItem struct {
	ID        uuid.UUID
	PartyID   uuid.UUID
	PartyName string
	Remaining Minor
	DueDate   time.Time
	CreatedAt time.Time
}

type AgingBucket struct {
	Label string     `json:"label"`
	Count int        `json:"count"`
	Total Minor      `json:"total"`
	Items []AgedItem `json:"items"`
}

type AgedItem struct {
	ID          uuid.UUID `json:"id"`
	PartyID     uuid.UUID `json:"party_id"`
	PartyName   string    `json:"party_name"`
	Remaining   Minor     `json:"remaining"`
	DueDate     time.Time `json:"due_date"`
	DaysPastDue int       `json:"days_past_due"`
}

type AgingReport struct {
	AsOf    time.Time     `json:"as_of"`
	Total   Minor         `json:"total"`
	Buckets []AgingBucket `json:"buckets"`
}

// BucketAging is a pure read-side function: it never mutates and is safe to
// run over stale or replicated snapshots. Items with nothing remaining are
// skipped. Days past due below zero count as current.
func BucketAging(items []AgingItem, asOf time.Time) AgingReport {
	report := AgingReport{
		AsOf: asOf,
		Buckets: []AgingBucket{
			{Label: "0-30"},
			{Label: "31-60"},
			{Label: "61+"},
		},
	}

	for _, it := range items {
		if it.Remaining <= 0 {
			continue
		}
		due := it.DueDate
		if due.IsZero() {
			due = it.CreatedAt
		}
		days := int(asOf.Sub(due).Hours() / 24)
		if days < 0 {
			days = 0
		}

		idx := 0
		switch {
		case days > 60:
			idx = 2
		case days > 30:
			idx = 1
		}

		b := &report.Buckets[idx]
		b.Count++
		b.Total += it.Remaining
		b.Items = append(b.Items, AgedItem{
			ID:          it.ID,
			PartyID:     it.PartyID,
			PartyName:   it.PartyName,
			Remaining:   it.Remaining,
			DueDate:     due,
			DaysPastDue: days,
		})
		report.Total += it.Remaining
	}

	return report
}
