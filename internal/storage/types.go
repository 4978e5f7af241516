package storage

import (
	"strings"
	"time"
)

// Verdict is the classifier label attached to a DNS event.
type Verdict string

const (
	VerdictBenign   Verdict = "benign"
	VerdictMalware  Verdict = "malware"
	VerdictSpam     Verdict = "spam"
	VerdictPhishing Verdict = "phishing"
)

// Verdicts lists every valid verdict.
var Verdicts = []Verdict{VerdictBenign, VerdictMalware, VerdictSpam, VerdictPhishing}

// ParseVerdict matches s case-insensitively against the known verdicts.
func ParseVerdict(s string) (Verdict, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range Verdicts {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

// Direction says whether an event is a DNS query or a DNS response.
type Direction string

const (
	DirectionQuery    Direction = "Query"
	DirectionResponse Direction = "Response"
)

// ParseDirection matches s case-insensitively and returns the canonical form.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "query":
		return DirectionQuery, true
	case "response":
		return DirectionResponse, true
	}
	return "", false
}

// Features holds the lexical and traffic statistics computed for an event.
type Features struct {
	DomainNameLength     float64 `json:"dns_domain_name_length"`
	NumericalPercentage  float64 `json:"numerical_percentage"`
	CharacterEntropy     float64 `json:"character_entropy"`
	MaxNumericLength     float64 `json:"max_numeric_length"`
	MaxAlphabetLength    float64 `json:"max_alphabet_length"`
	VowelsConsonantRatio float64 `json:"vowels_consonant_ratio"`
	ReceivingBytes       float64 `json:"receiving_bytes"`
	SendingBytes         float64 `json:"sending_bytes"`
	TTLMean              float64 `json:"ttl_mean"`
}

// EventRecord is one observed DNS query or response. ID, CreatedAt and
// UpdatedAt are assigned by the store on insert and never change.
type EventRecord struct {
	ID         string    `json:"_id"`
	Timestamp  time.Time `json:"timestamp"`
	Prediction Verdict   `json:"prediction"`
	Domain     string    `json:"domain"`
	EventType  Direction `json:"event_type"`
	Features
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Filter selects events by domain substring and verdict. Zero values
// disable the respective condition.
type Filter struct {
	Domain     string
	Prediction Verdict
}

// SortColumn is a column the listing may be ordered by.
type SortColumn string

const (
	SortTimestamp        SortColumn = "timestamp"
	SortCreatedAt        SortColumn = "createdAt"
	SortDomain           SortColumn = "domain"
	SortPrediction       SortColumn = "prediction"
	SortEventType        SortColumn = "event_type"
	SortDomainNameLength SortColumn = "dns_domain_name_length"
	SortCharacterEntropy SortColumn = "character_entropy"
)

// sortColumns maps each sortable column to its SQL column.
var sortColumns = map[SortColumn]string{
	SortTimestamp:        "ts",
	SortCreatedAt:        "created_at",
	SortDomain:           "domain",
	SortPrediction:       "prediction",
	SortEventType:        "event_type",
	SortDomainNameLength: "dns_domain_name_length",
	SortCharacterEntropy: "character_entropy",
}

// Valid reports whether c is one of the sortable columns.
func (c SortColumn) Valid() bool {
	_, ok := sortColumns[c]
	return ok
}

// ListQuery defines a filtered, sorted page of events. Limit 0 returns
// every match.
type ListQuery struct {
	Filter    Filter
	Sort      SortColumn
	Ascending bool
	Limit     int
	Offset    int
}
