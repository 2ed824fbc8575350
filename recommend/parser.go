package recommend

import (
	"regexp"
	"strings"

	"github.com/imkonsowa/food-recs/apperrors"
	"github.com/imkonsowa/food-recs/models"
)

// FieldsPerRecord is the width of a restaurant_name,dish_name,calories,price line.
const FieldsPerRecord = 4

type Policy string

const (
	// Lenient pads or truncates model output to the expected shape.
	Lenient Policy = "lenient"
	// Strict rejects model output that does not match the expected shape.
	Strict Policy = "strict"
)

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+.-]*[ \t]*(\r?\n|$)")
	trailingFence = regexp.MustCompile("(^|\r?\n)[ \t]*```[ \t]*$")
)

// StripFences removes one leading and one trailing code fence, along with any
// language tag on the opening fence.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

const recordHeader = "restaurant_name,dish_name,calories,price"

// recordLines returns the non-empty lines of the fence-stripped reply,
// skipping any echo of the field header.
func recordLines(raw string) []string {
	lines := nonEmptyLines(StripFences(raw))
	out := lines[:0]
	for _, line := range lines {
		if strings.EqualFold(strings.Join(splitFields(line), ","), recordHeader) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func splitFields(line string) []string {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func toRecord(fields []string) models.RecommendationRecord {
	for len(fields) < FieldsPerRecord {
		fields = append(fields, "")
	}
	return models.RecommendationRecord{
		Name:     fields[0],
		Dish:     fields[1],
		Calories: fields[2],
		Price:    fields[3],
	}
}

// ParseRecommendations never fails: it always returns exactly expected
// records. Missing lines become empty records, surplus lines are dropped,
// short lines are padded with empty fields and only the first four fields of a
// long line are kept.
func ParseRecommendations(raw string, expected int) []models.RecommendationRecord {
	if expected <= 0 {
		return []models.RecommendationRecord{}
	}

	lines := recordLines(raw)
	for len(lines) < expected {
		lines = append(lines, "")
	}
	lines = lines[:expected]

	records := make([]models.RecommendationRecord, 0, expected)
	for _, line := range lines {
		fields := splitFields(line)
		if len(fields) > FieldsPerRecord {
			fields = fields[:FieldsPerRecord]
		}
		records = append(records, toRecord(fields))
	}

	return records
}

// ParseRecommendationsStrict returns a MALFORMED_GENERATION error unless the
// output holds exactly expected lines of exactly four fields.
func ParseRecommendationsStrict(raw string, expected int) ([]models.RecommendationRecord, error) {
	if expected <= 0 {
		return []models.RecommendationRecord{}, nil
	}

	lines := recordLines(raw)
	if len(lines) != expected {
		return nil, apperrors.NewWithContext(apperrors.CodeMalformedGeneration,
			"unexpected number of recommendation lines",
			map[string]any{"expected": expected, "got": len(lines)})
	}

	records := make([]models.RecommendationRecord, 0, expected)
	for i, line := range lines {
		fields := splitFields(line)
		if len(fields) != FieldsPerRecord {
			return nil, apperrors.NewWithContext(apperrors.CodeMalformedGeneration,
				"unexpected number of fields in recommendation line",
				map[string]any{"line": i + 1, "expected": FieldsPerRecord, "got": len(fields)})
		}
		records = append(records, toRecord(fields))
	}

	return records, nil
}

// Parse applies the given policy.
func (p Policy) Parse(raw string, expected int) ([]models.RecommendationRecord, error) {
	if p == Strict {
		return ParseRecommendationsStrict(raw, expected)
	}
	return ParseRecommendations(raw, expected), nil
}

// ParseList splits a comma or newline separated model reply into trimmed,
// non-empty items.
func ParseList(raw string) []string {
	items := []string{}
	split := func(r rune) bool { return r == ',' || r == '\n' }
	for _, item := range strings.FieldsFunc(StripFences(raw), split) {
		item = strings.Trim(strings.TrimSpace(item), `"'`)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
