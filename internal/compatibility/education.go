package compatibility

import "strings"

// DefaultEducationLevel is used for labels missing from the level table.
const DefaultEducationLevel = 3

var educationLevels = map[string]int{
	"high_school":  1,
	"diploma":      2,
	"bachelors":    3,
	"masters":      4,
	"phd":          5,
	"professional": 4,
}

// EducationLevel maps a free-text education label to its ordinal level.
func EducationLevel(label string) int {
	if level, ok := educationLevels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return level
	}
	return DefaultEducationLevel
}
