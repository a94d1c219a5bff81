package audiosweep

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailEviction_FewerThanCountDeletesAll(t *testing.T) {
	p := TailEviction{Count: DefaultEvictCount}

	for n := 1; n < DefaultEvictCount; n++ {
		records := sequence(idsN(n)...)
		part := p.Partition(records, testNow)

		assert.Equal(t, records, part.Delete, "n=%d", n)
		assert.Empty(t, part.Keep, "n=%d", n)
		assert.Len(t, part.Warnings, 1, "n=%d", n)
	}
}

func TestTailEviction_EmptyInput(t *testing.T) {
	part := TailEviction{Count: DefaultEvictCount}.Partition(nil, testNow)

	assert.Empty(t, part.Delete)
	assert.Empty(t, part.Keep)
	assert.Empty(t, part.Warnings)
}

func TestTailEviction_OrderPreservingPartition(t *testing.T) {
	p := TailEviction{Count: DefaultEvictCount}

	for n := DefaultEvictCount; n <= 12; n++ {
		records := sequence(idsN(n)...)
		part := p.Partition(records, testNow)

		require.Len(t, part.Delete, DefaultEvictCount, "n=%d", n)
		assert.Equal(t, records[n-DefaultEvictCount:], part.Delete, "n=%d", n)

		joined := append(append(RecordSet{}, part.Keep...), part.Delete...)
		assert.Equal(t, records, joined, "n=%d", n)
		assert.Empty(t, part.Warnings, "n=%d", n)
	}
}

func TestTailEviction_SevenRecords(t *testing.T) {
	part := TailEviction{Count: 5}.Partition(sequence("a", "b", "c", "d", "e", "f", "g"), testNow)

	assert.Equal(t, []string{"c", "d", "e", "f", "g"}, part.Delete.Identifiers())
	assert.Equal(t, []string{"a", "b"}, part.Keep.Identifiers())
}

func TestTailEviction_NonPositiveCountDeletesNothing(t *testing.T) {
	records := sequence("a", "b")

	for _, count := range []int{0, -1, -10} {
		part := TailEviction{Count: count}.Partition(records, testNow)
		assert.Equal(t, records, part.Keep, "count=%d", count)
		assert.Empty(t, part.Delete, "count=%d", count)
		assert.Empty(t, part.Warnings, "count=%d", count)
	}
}

func TestTailEviction_DoesNotAliasInput(t *testing.T) {
	records := sequence("a", "b", "c", "d", "e", "f")
	part := TailEviction{Count: 5}.Partition(records, testNow)

	part.Keep = append(part.Keep, rec("x", testNow))
	assert.Equal(t, "b", records[1].Identifier)
}

func TestAgeFilter_Scenario(t *testing.T) {
	allowlist := DefaultAllowlist(MatchByValue)
	protected := backgroundMusic["summit"]

	records := RecordSet{
		rec(protected, testNow.AddDate(0, 0, -60)),
		rec("old-voiceover", testNow.AddDate(0, 0, -60)),
		rec("fresh-voiceover", testNow.AddDate(0, 0, -10)),
	}

	part := AgeFilter{Allowlist: allowlist, MaxAge: DefaultMaxAge}.Partition(records, testNow)

	assert.Equal(t, []string{protected, "fresh-voiceover"}, part.Keep.Identifiers())
	assert.Equal(t, []string{"old-voiceover"}, part.Delete.Identifiers())
}

func TestAgeFilter_AllowlistedAlwaysKept(t *testing.T) {
	allowlist := DefaultAllowlist(MatchByValue)
	p := AgeFilter{Allowlist: allowlist, MaxAge: DefaultMaxAge}

	for _, age := range []int{0, 29, 31, 365, 3650} {
		for name, url := range backgroundMusic {
			records := RecordSet{rec(url, testNow.AddDate(0, 0, -age))}
			part := p.Partition(records, testNow)
			assert.Equal(t, records, part.Keep, "%s aged %d days", name, age)
			assert.Empty(t, part.Delete, "%s aged %d days", name, age)
		}
	}
}

func TestAgeFilter_Boundary(t *testing.T) {
	p := AgeFilter{Allowlist: NewAllowlist(nil, MatchByValue), MaxAge: DefaultMaxAge}

	records := RecordSet{
		rec("exactly-30-days", testNow.Add(-DefaultMaxAge)),
		rec("just-over", testNow.Add(-DefaultMaxAge-time.Second)),
		rec("just-under", testNow.Add(-DefaultMaxAge+time.Second)),
		rec("future", testNow.Add(time.Hour)),
	}
	part := p.Partition(records, testNow)

	assert.Equal(t, []string{"exactly-30-days", "just-under", "future"}, part.Keep.Identifiers())
	assert.Equal(t, []string{"just-over"}, part.Delete.Identifiers())
}

func TestAgeFilter_MatchByKey(t *testing.T) {
	old := testNow.AddDate(0, 0, -90)
	records := RecordSet{
		rec("summit", old),
		rec(backgroundMusic["summit"], old),
	}

	byKey := AgeFilter{Allowlist: DefaultAllowlist(MatchByKey), MaxAge: DefaultMaxAge}.Partition(records, testNow)
	assert.Equal(t, []string{"summit"}, byKey.Keep.Identifiers())
	assert.Equal(t, []string{backgroundMusic["summit"]}, byKey.Delete.Identifiers())

	byValue := AgeFilter{Allowlist: DefaultAllowlist(MatchByValue), MaxAge: DefaultMaxAge}.Partition(records, testNow)
	assert.Equal(t, []string{backgroundMusic["summit"]}, byValue.Keep.Identifiers())
	assert.Equal(t, []string{"summit"}, byValue.Delete.Identifiers())
}

func TestAgeFilter_WithoutAllowlist(t *testing.T) {
	p := AgeFilter{MaxAge: DefaultMaxAge}

	part := p.Partition(RecordSet{
		rec("old", testNow.AddDate(0, 0, -31)),
		rec("fresh", testNow.AddDate(0, 0, -1)),
	}, testNow)
	assert.Equal(t, []string{"fresh"}, part.Keep.Identifiers())
	assert.Equal(t, []string{"old"}, part.Delete.Identifiers())

	r := NewReconciler(newFakeMedia(), p, ReconcileOptions{}, discardLogger(), nil)
	assert.Contains(t, r.ExtraConfigLogInfo(), "Allowlist: 0 entries, match by value")
}

func idsN(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("audio-%02d", i)
	}
	return ids
}
