package stats

import (
	"strings"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// Filter selects records; zero fields match everything
type Filter struct {
	Gender  string
	Emotion string
	// MinAge and MaxAge bound the age inclusively; 0 disables a bound
	MinAge int
	MaxAge int
}

// Empty reports whether the filter matches every record
func (f Filter) Empty() bool {
	return f == Filter{}
}

// Match reports whether the record passes the filter. Labels compare case-insensitively.
func (f Filter) Match(r types.AttributeRecord) bool {
	if f.Gender != "" && !strings.EqualFold(f.Gender, r.Gender) {
		return false
	}
	if f.Emotion != "" && !strings.EqualFold(f.Emotion, r.Emotion) {
		return false
	}
	if f.MinAge > 0 && r.Age < f.MinAge {
		return false
	}
	if f.MaxAge > 0 && r.Age > f.MaxAge {
		return false
	}
	return true
}

// Apply returns the matching records in their original order
func (f Filter) Apply(records []types.AttributeRecord) []types.AttributeRecord {
	if f.Empty() {
		return records
	}
	var out []types.AttributeRecord
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
