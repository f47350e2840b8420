package domain

import "time"

// NotApplicable marks a date statistic value that does not exist
const NotApplicable = "NA"

// Observation is a numeric value kept as the exact string it was scraped as
type Observation = string

// PhraseResult is one row of the calculator history: a phrase and its value per cipher
type PhraseResult struct {
	Phrase string   `json:"phrase"`
	Values []string `json:"values"`
}

// DateStat is a named date statistic with a value and an optional secondary value
type DateStat struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Secondary string `json:"secondary"`
}

// Values returns the statistic's two values in display order
func (d DateStat) Values() []string {
	return []string{d.Value, d.Secondary}
}

// RankedEntry is an observation and how many times it occurred
type RankedEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Tier classifies an observation for display
type Tier int

const (
	TierNone Tier = iota
	TierNotable
	TierSignificant
)

func (t Tier) String() string {
	switch t {
	case TierSignificant:
		return "significant"
	case TierNotable:
		return "notable"
	default:
		return "none"
	}
}

// Summary describes the distribution of counts in a ranked list
type Summary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Max    float64 `json:"max"`
}

// Match is a historical phrase whose results hit the current tiers
type Match struct {
	Phrase      string   `json:"phrase"`
	Significant []string `json:"significant,omitempty"`
	Notable     []string `json:"notable,omitempty"`
}

// Analysis holds everything produced for one date
type Analysis struct {
	Date          time.Time      `json:"date"`
	MoonSign      string         `json:"moon_sign,omitempty"`
	PhraseResults []PhraseResult `json:"phrase_results"`
	DateStats     []DateStat     `json:"date_stats"`
	Ranked        []RankedEntry  `json:"ranked"`
	Significant   []RankedEntry  `json:"significant,omitempty"`
	Notable       []RankedEntry  `json:"notable,omitempty"`
	Matches       []Match        `json:"matches,omitempty"`
	Summary       Summary        `json:"summary"`
}

// Run is a persisted analysis
type Run struct {
	ID        string    `json:"id"`
	Analysis  Analysis  `json:"analysis"`
	CreatedAt time.Time `json:"created_at"`
}
