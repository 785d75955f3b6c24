package models

import (
	"slices"
	"sort"
	"time"
)

// CancelingRecords negates the not-yet-reported records of the most recent
// entry that still has any. Only entries modified within maxSearch of now are
// considered, and only records whose field is in fields are negated. A record
// counts as not yet reported while its ReportingTime is after now.
func CancelingRecords(entries []Entry, now time.Time, maxSearch time.Duration, fields []ReportField) []TransactionRecord {
	floor := now.Add(-maxSearch)
	recent := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.ModificationTime.Before(floor) {
			recent = append(recent, e)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].ModificationTime.Before(recent[j].ModificationTime)
	})

	for i := len(recent) - 1; i >= 0; i-- {
		if !hasPendingRecord(recent[i], now, fields) {
			continue
		}
		var out []TransactionRecord
		for _, r := range recent[i].TransactionRecords {
			if slices.Contains(fields, r.Field) {
				r.Amount = -r.Amount
				out = append(out, r)
			}
		}
		return out
	}
	return nil
}

func hasPendingRecord(e Entry, now time.Time, fields []ReportField) bool {
	for _, r := range e.TransactionRecords {
		if slices.Contains(fields, r.Field) && r.ReportingTime.After(now) {
			return true
		}
	}
	return false
}
