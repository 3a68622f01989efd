package models

// NaturalLanguageString is OneBusAway's localized text wrapper.
type NaturalLanguageString struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

// Situation is one service disruption record from the references block of
// an arrivals response.
type Situation struct {
	ID           string                `json:"id"`
	CreationTime EpochMillis           `json:"creationTime"`
	Reason       string                `json:"reason"`
	Severity     string                `json:"severity"`
	Summary      NaturalLanguageString `json:"summary"`
	Description  NaturalLanguageString `json:"description"`
	URL          NaturalLanguageString `json:"url"`
}
