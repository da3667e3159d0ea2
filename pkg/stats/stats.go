package stats

import (
	"math"
	"sort"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// DefaultRecent is the number of records shown by Last when n is not positive
const DefaultRecent = 20

// Share is one label of a distribution
type Share struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// AgeSummary describes the known ages of a record set
type AgeSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// Summary aggregates a record set
type Summary struct {
	Total    int        `json:"total"`
	Age      AgeSummary `json:"age"`
	Gender   []Share    `json:"gender"`
	Emotion  []Share    `json:"emotion"`
	Hair     []Share    `json:"hair"`
	Eye      []Share    `json:"eye"`
	Identity []Share    `json:"identity,omitempty"`
}

// Summarize computes age statistics and label distributions.
// Records carrying the unknown age sentinel are left out of the age summary.
func Summarize(records []types.AttributeRecord) Summary {
	s := Summary{Total: len(records)}

	var ages []int
	for _, r := range records {
		if r.Age != types.UnknownAge {
			ages = append(ages, r.Age)
		}
	}
	s.Age = summarizeAges(ages)

	s.Gender = distribution(records, func(r types.AttributeRecord) string { return r.Gender })
	s.Emotion = distribution(records, func(r types.AttributeRecord) string { return r.Emotion })
	s.Hair = distribution(records, func(r types.AttributeRecord) string { return r.HairColor })
	s.Eye = distribution(records, func(r types.AttributeRecord) string { return r.EyeColor })
	s.Identity = distribution(records, func(r types.AttributeRecord) string { return r.Identity })

	return s
}

func summarizeAges(ages []int) AgeSummary {
	if len(ages) == 0 {
		return AgeSummary{}
	}

	a := AgeSummary{Count: len(ages), Min: ages[0], Max: ages[0]}
	sum := 0
	for _, v := range ages {
		sum += v
		if v < a.Min {
			a.Min = v
		}
		if v > a.Max {
			a.Max = v
		}
	}
	a.Mean = float64(sum) / float64(len(ages))

	// Sample standard deviation
	if len(ages) > 1 {
		var sq float64
		for _, v := range ages {
			d := float64(v) - a.Mean
			sq += d * d
		}
		a.StdDev = math.Sqrt(sq / float64(len(ages)-1))
	}
	return a
}

// distribution counts labels, most frequent first; empty labels are skipped
func distribution(records []types.AttributeRecord, label func(types.AttributeRecord) string) []Share {
	counts := make(map[string]int)
	total := 0
	for _, r := range records {
		l := label(r)
		if l == "" {
			continue
		}
		counts[l]++
		total++
	}
	if total == 0 {
		return nil
	}

	shares := make([]Share, 0, len(counts))
	for l, n := range counts {
		shares = append(shares, Share{Label: l, Count: n, Percent: 100 * float64(n) / float64(total)})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Label < shares[j].Label
	})
	return shares
}

// Last returns the n most recent records in original order
func Last(records []types.AttributeRecord, n int) []types.AttributeRecord {
	if n <= 0 {
		n = DefaultRecent
	}
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}
