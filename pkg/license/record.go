package license

import (
	"slices"
	"strings"
	"time"

	"github.com/dpbiotech/configurator/pkg/pricing"
)

// Status is the lifecycle state of a license.
type Status string

const (
	StatusNotActive Status = "not-active"
	StatusValid     Status = "valid"
	StatusExpired   Status = "expired"
	StatusRevoked   Status = "revoked"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNotActive, StatusValid, StatusExpired, StatusRevoked:
		return true
	}
	return false
}

// DateLayout is the calendar date format used in snapshots and API output.
const DateLayout = "2006-01-02"

// Record is the license state of one serial number.
// ActivationDate and Expires are UTC midnight, or zero when absent.
type Record struct {
	Serial         string
	Status         Status
	ActivationDate time.Time
	Expires        time.Time
	Features       FeatureSet
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	r.Features = r.Features.Clone()
	return r
}

// Has reports whether the feature is active on this license.
func (r Record) Has(feature string) bool {
	return r.Features.Has(NormalizeFeature(feature))
}

// FeatureSet is a set of feature identifiers.
type FeatureSet map[string]struct{}

// NewFeatureSet builds a set from normalized identifiers, skipping empty ones.
func NewFeatureSet(features ...string) FeatureSet {
	s := make(FeatureSet, len(features))
	s.Add(features...)
	return s
}

// Add normalizes and inserts features. Adding an existing feature is a no-op.
func (s FeatureSet) Add(features ...string) {
	for _, f := range features {
		if f = NormalizeFeature(f); f != "" {
			s[f] = struct{}{}
		}
	}
}

// Has reports whether the set contains feature.
func (s FeatureSet) Has(feature string) bool {
	_, ok := s[feature]
	return ok
}

// Sorted returns the members in lexical order.
func (s FeatureSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Clone returns a copy of the set. A nil set clones to an empty one.
func (s FeatureSet) Clone() FeatureSet {
	out := make(FeatureSet, len(s))
	for f := range s {
		out[f] = struct{}{}
	}
	return out
}

// NormalizeSerial trims and uppercases a serial number.
func NormalizeSerial(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}

// NormalizeFeature maps a feature or feature-product identifier to the bare
// lowercase feature id: "Feature-Parallax" becomes "parallax".
func NormalizeFeature(feature string) string {
	f := strings.ToLower(strings.TrimSpace(feature))
	f, _ = strings.CutPrefix(f, pricing.FeaturePrefix)
	return f
}

// ParseFeatures splits the comma-joined feature list carried in checkout
// metadata.
func ParseFeatures(joined string) []string {
	var out []string
	for f := range strings.SplitSeq(joined, ",") {
		if f = NormalizeFeature(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
