package triage

import "strings"

var (
	defaultCriticalTags = []string{"unconscious", "notBreathing", "severeBleeding"}
	defaultUrgentTags   = []string{"chestPain", "headInjury", "difficultyBreathing", "severePain"}
)

// Protocol holds the tag sets the classifier matches against. Deployments
// with a different triage protocol may construct their own; everything else
// uses DefaultProtocol.
type Protocol struct {
	critical map[string]struct{}
	urgent   map[string]struct{}
}

func NewProtocol(criticalTags, urgentTags []string) Protocol {
	return Protocol{
		critical: tagSet(criticalTags),
		urgent:   tagSet(urgentTags),
	}
}

func DefaultProtocol() Protocol {
	return NewProtocol(defaultCriticalTags, defaultUrgentTags)
}

// Classify maps a symptom tag set to a severity tier. First match wins:
// any critical tag yields red, else any urgent tag yields blue, else green.
// Unknown tags are ignored rather than rejected. Pure and total.
func (p Protocol) Classify(symptomTags []string) Priority {
	for _, tag := range symptomTags {
		if _, ok := p.critical[normalizeTag(tag)]; ok {
			return PriorityRed
		}
	}
	for _, tag := range symptomTags {
		if _, ok := p.urgent[normalizeTag(tag)]; ok {
			return PriorityBlue
		}
	}
	return PriorityGreen
}

func (p Protocol) CriticalTags() []string {
	return sortedTags(p.critical)
}

func (p Protocol) UrgentTags() []string {
	return sortedTags(p.urgent)
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		normalized := normalizeTag(tag)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

func normalizeTag(tag string) string {
	return strings.TrimSpace(tag)
}
