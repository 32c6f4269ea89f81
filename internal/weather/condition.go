package weather

// ConditionCode represents a normalized weather condition.
type ConditionCode string

const (
	ConditionClear           ConditionCode = "clear"
	ConditionPartlyCloudy    ConditionCode = "partly-cloudy"
	ConditionScatteredClouds ConditionCode = "scattered-clouds"
	ConditionBrokenClouds    ConditionCode = "broken-clouds"
	ConditionShowers         ConditionCode = "showers"
	ConditionRain            ConditionCode = "rain"
	ConditionThunderstorm    ConditionCode = "thunderstorm"
	ConditionSnow            ConditionCode = "snow"
	ConditionMist            ConditionCode = "mist"
)

// UnknownConditionText is used for unmapped codes when the provider sends no text.
const UnknownConditionText = "Unknown"

// ConditionDescription pairs a canonical code with human-readable text.
type ConditionDescription struct {
	Code ConditionCode `json:"code"`
	Text string        `json:"text"`
}

// ConditionTable maps one provider's raw condition codes to canonical
// descriptions. Tables are built once and only read afterwards.
type ConditionTable[K comparable] struct {
	entries map[K]ConditionDescription
}

// NewConditionTable copies entries into a new table.
func NewConditionTable[K comparable](entries map[K]ConditionDescription) *ConditionTable[K] {
	m := make(map[K]ConditionDescription, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return &ConditionTable[K]{entries: m}
}

// Translate is total: unknown codes map to ConditionClear.
// rawText replaces the table text when the entry has none, and is used as
// the text for unknown codes.
func (t *ConditionTable[K]) Translate(code K, rawText string) ConditionDescription {
	if d, ok := t.entries[code]; ok {
		if d.Text == "" {
			d.Text = textOrUnknown(rawText)
		}
		return d
	}
	return ConditionDescription{Code: ConditionClear, Text: textOrUnknown(rawText)}
}

// Len reports the number of mapped codes.
func (t *ConditionTable[K]) Len() int {
	return len(t.entries)
}

func textOrUnknown(s string) string {
	if s == "" {
		return UnknownConditionText
	}
	return s
}
