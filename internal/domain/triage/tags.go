package triage

import "sort"

// Symptom tags the intake forms know about, beyond the critical and urgent
// protocol sets. Anything not listed still classifies (as green).
var minorSymptomTags = []string{"moderateBleeding", "bruise", "fever", "nausea", "minorCut"}

var knownSupplyTags = []string{"water", "food", "babyFormula", "bandages", "power", "other"}

// SupplyTagOther marks a free-text supply need; its description travels in
// Case.OtherSupplyDescription.
const SupplyTagOther = "other"

// KnownSymptomTags returns every tag the intake forms offer, protocol sets
// first, minor tags after.
func KnownSymptomTags(p Protocol) []string {
	out := make([]string, 0, len(p.critical)+len(p.urgent)+len(minorSymptomTags))
	out = append(out, p.CriticalTags()...)
	out = append(out, p.UrgentTags()...)
	out = append(out, minorSymptomTags...)
	return out
}

func KnownSupplyTags() []string {
	out := make([]string, len(knownSupplyTags))
	copy(out, knownSupplyTags)
	return out
}

func IsKnownSupplyTag(tag string) bool {
	normalized := normalizeTag(tag)
	for _, known := range knownSupplyTags {
		if known == normalized {
			return true
		}
	}
	return false
}

// NormalizeTags trims, drops empties, and removes duplicates while keeping
// first-seen order. Ordering of the result is irrelevant to classification
// but stable for display.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		normalized := normalizeTag(tag)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func sortedTags(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
