package audiosweep

import (
	"fmt"
	"time"
)

// Policy defaults.
const (
	DefaultEvictCount = 5
	DefaultMaxAge     = 30 * 24 * time.Hour
)

// Partition splits a RecordSet into the records to keep and the records to
// delete. Both sides preserve the input order.
type Partition struct {
	Keep   RecordSet
	Delete RecordSet
	// Warnings are conditions worth reporting that do not stop the run.
	Warnings []string
}

// Policy selects which records are deleted.
type Policy interface {
	Name() string
	Partition(records RecordSet, now time.Time) Partition
	LogInfo() []string
}

// TailEviction deletes the last Count records in file order. With fewer than
// Count records everything is deleted. A Count of zero or less deletes
// nothing.
type TailEviction struct {
	Count int
}

func (p TailEviction) Name() string {
	return "tail-eviction"
}

func (p TailEviction) LogInfo() []string {
	return []string{fmt.Sprintf("Eviction count: %d", p.Count)}
}

func (p TailEviction) Partition(records RecordSet, _ time.Time) Partition {
	var part Partition
	if len(records) == 0 {
		return part
	}

	count := max(p.Count, 0)
	if len(records) < count {
		part.Warnings = append(part.Warnings,
			fmt.Sprintf("record has fewer than %d entries, deleting all %d", count, len(records)))
	}

	cut := max(len(records)-count, 0)
	part.Keep = append(RecordSet(nil), records[:cut]...)
	part.Delete = append(RecordSet(nil), records[cut:]...)
	return part
}

// AgeFilter deletes records older than MaxAge unless they are on the
// allow-list.
type AgeFilter struct {
	Allowlist *Allowlist
	MaxAge    time.Duration
}

func (p AgeFilter) Name() string {
	return "age-filter"
}

func (p AgeFilter) LogInfo() []string {
	return []string{
		fmt.Sprintf("Max age: %s", p.MaxAge),
		fmt.Sprintf("Allowlist: %d entries, match by %s", p.Allowlist.Len(), p.Allowlist.Mode()),
	}
}

func (p AgeFilter) Partition(records RecordSet, now time.Time) Partition {
	var part Partition
	cutoff := now.Add(-p.MaxAge)

	for _, r := range records {
		switch {
		case p.Allowlist.Contains(r.Identifier):
			part.Keep = append(part.Keep, r)
		case r.CreatedAt.Before(cutoff):
			part.Delete = append(part.Delete, r)
		default:
			part.Keep = append(part.Keep, r)
		}
	}
	return part
}
