package alerts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/conviction/internal/domain"
)

func d(day int) time.Time {
	return time.Date(2026, 2, day, 0, 0, 0, 0, time.UTC)
}

func TestComputeID_Deterministic(t *testing.T) {
	id1 := ComputeID(SignalClusterBuy, "NVDA", []string{"Alice", "Bob"}, []time.Time{d(1), d(2)})
	id2 := ComputeID(SignalClusterBuy, "NVDA", []string{"Alice", "Bob"}, []time.Time{d(1), d(2)})

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 16)
}

func TestComputeID_PermutationInvariant(t *testing.T) {
	forward := ComputeID(SignalClusterBuy, "NVDA",
		[]string{"Alice", "Bob", "Carol"},
		[]time.Time{d(1), d(2), d(3)})
	reversed := ComputeID(SignalClusterBuy, "NVDA",
		[]string{"Carol", "Alice", "Bob"},
		[]time.Time{d(3), d(1), d(2)})

	assert.Equal(t, forward, reversed)
}

func TestComputeID_DuplicatesCollapse(t *testing.T) {
	unique := ComputeID(SignalClusterBuy, "NVDA", []string{"Alice"}, []time.Time{d(1)})
	doubled := ComputeID(SignalClusterBuy, "NVDA", []string{"Alice", "Alice"}, []time.Time{d(1), d(1)})

	assert.Equal(t, unique, doubled)
}

func TestComputeID_DifferentEvidenceDiffers(t *testing.T) {
	base := ComputeID(SignalClusterBuy, "NVDA", []string{"Alice"}, []time.Time{d(1)})

	assert.NotEqual(t, base, ComputeID(SignalLargeSingleBuy, "NVDA", []string{"Alice"}, []time.Time{d(1)}))
	assert.NotEqual(t, base, ComputeID(SignalClusterBuy, "AMD", []string{"Alice"}, []time.Time{d(1)}))
	assert.NotEqual(t, base, ComputeID(SignalClusterBuy, "NVDA", []string{"Bob"}, []time.Time{d(1)}))
	assert.NotEqual(t, base, ComputeID(SignalClusterBuy, "NVDA", []string{"Alice"}, []time.Time{d(2)}))
}

func TestComputeID_LongNamesTruncated(t *testing.T) {
	long := "A. Very Long Legislator Name Including Suffixes III"
	truncated := long[:24]

	assert.Equal(t,
		ComputeID(SignalClusterBuy, "NVDA", []string{long}, []time.Time{d(1)}),
		ComputeID(SignalClusterBuy, "NVDA", []string{truncated}, []time.Time{d(1)}))
}

func TestComputeID_MultibyteNamesTruncateOnRuneBoundary(t *testing.T) {
	// The 24th character boundary falls mid-rune in byte terms: "a" plus
	// two-byte runes puts every rune start at an odd byte offset.
	long := "a" + strings.Repeat("ß", 29)
	first24Runes := "a" + strings.Repeat("ß", 23)

	assert.Equal(t,
		ComputeID(SignalClusterBuy, "NVDA", []string{long}, []time.Time{d(1)}),
		ComputeID(SignalClusterBuy, "NVDA", []string{first24Runes}, []time.Time{d(1)}))
}

func TestComputeID_CapsParticipantsAndDates(t *testing.T) {
	manyNames := []string{"A", "B", "C", "D", "E", "F", "G"}
	// Only the first 5 sorted names participate in the hash.
	capped := ComputeID(SignalClusterBuy, "NVDA", manyNames, []time.Time{d(1)})
	first5 := ComputeID(SignalClusterBuy, "NVDA", manyNames[:5], []time.Time{d(1)})
	assert.Equal(t, capped, first5)

	var manyDates []time.Time
	for i := 1; i <= 12; i++ {
		manyDates = append(manyDates, d(i))
	}
	cappedDates := ComputeID(SignalClusterBuy, "NVDA", []string{"A"}, manyDates)
	first10 := ComputeID(SignalClusterBuy, "NVDA", []string{"A"}, manyDates[:10])
	assert.Equal(t, cappedDates, first10)
}

func TestFinalize(t *testing.T) {
	a := Alert{
		SignalType:   SignalTrinity,
		Ticker:       "NVDA",
		Participants: []string{"Alice", "Bob"},
		Dates:        []time.Time{d(1)},
	}
	a.Finalize()

	assert.Equal(t, ComputeID(SignalTrinity, "NVDA", []string{"Bob", "Alice"}, []time.Time{d(1)}), a.ID)
}

func TestFinalize_EnrichmentDoesNotChangeID(t *testing.T) {
	bare := Alert{
		SignalType:   SignalClusterBuy,
		Ticker:       "NVDA",
		Participants: []string{"Alice", "Bob"},
		Dates:        []time.Time{d(1), d(2)},
	}
	bare.Finalize()

	enriched := Alert{
		SignalType:   SignalClusterBuy,
		Ticker:       "NVDA",
		CompanyName:  "NVIDIA Corporation",
		Participants: []string{"Alice", "Bob"},
		Dates:        []time.Time{d(1), d(2)},
		Evidence: []domain.TradeRecord{
			{ActorName: "Alice", Ticker: "NVDA", TradeDate: d(1)},
			{ActorName: "Bob", Ticker: "NVDA", TradeDate: d(2)},
		},
		Details: map[string]interface{}{"total_value": 150000.0},
	}
	enriched.Finalize()

	assert.Equal(t, bare.ID, enriched.ID)
}
