package triage

import (
	"strings"
	"time"
)

// Category is the origin workflow that produced a case.
type Category string

const (
	CategoryPublic Category = "public"
	CategoryMedic  Category = "medic"
	CategorySupply Category = "supply"
)

// Priority is the severity tier assigned at creation.
type Priority string

const (
	PriorityRed   Priority = "red"
	PriorityBlue  Priority = "blue"
	PriorityGreen Priority = "green"
)

// SupplyPriority is the fixed tier for supply requests; they carry no
// symptoms and never pass through the classifier.
const SupplyPriority = PriorityBlue

// Coordinates is a device location fix.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Case is a recorded incident. After creation only Resolved and the
// broadcast fields change; everything else is immutable.
type Case struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	Priority  Priority  `json:"priority"`

	SymptomTags            []string `json:"symptomTags,omitempty"`
	SupplyTags             []string `json:"supplyTags,omitempty"`
	OtherSupplyDescription string   `json:"otherSupplyDescription,omitempty"`

	SubjectName   string       `json:"subjectName,omitempty"`
	Age           string       `json:"age,omitempty"`
	LocationLabel string       `json:"locationLabel,omitempty"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
	IsAnonymous   bool         `json:"isAnonymous,omitempty"`
	PhotoRef      string       `json:"photoRef,omitempty"`

	Resolved bool `json:"resolved"`

	// Broadcasting is a derived view field: true only while the broadcast
	// controller points at this case. BroadcastStartedAt is kept as a
	// historical record after the broadcast stops.
	Broadcasting       bool       `json:"broadcasting"`
	BroadcastStartedAt *time.Time `json:"broadcastStartedAt,omitempty"`
}

func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryPublic:
		return CategoryPublic, nil
	case CategoryMedic:
		return CategoryMedic, nil
	case CategorySupply:
		return CategorySupply, nil
	default:
		return "", ErrInvalidCategory
	}
}

func ParsePriority(raw string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityRed:
		return PriorityRed, nil
	case PriorityBlue:
		return PriorityBlue, nil
	case PriorityGreen:
		return PriorityGreen, nil
	default:
		return "", ErrInvalidPriority
	}
}
