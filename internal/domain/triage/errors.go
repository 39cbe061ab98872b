package triage

import "errors"

var (
	ErrInvalidCategory = errors.New("invalid case category")
	ErrInvalidPriority = errors.New("invalid priority tier")

	ErrUnknownSymptomTag = errors.New("unknown symptom tag")
	ErrUnknownSupplyTag  = errors.New("unknown supply tag")
)
