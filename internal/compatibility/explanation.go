package compatibility

import (
	"fmt"
	"strings"
)

// Quality is the label of a score tier.
type Quality string

const (
	QualityExcellent Quality = "Excellent match"
	QualityGreat     Quality = "Great match"
	QualityGood      Quality = "Good match"
	QualityModerate  Quality = "Moderate match"
	QualityLow       Quality = "Low match"
)

const lowMatchSuffix = "Limited compatibility"

func QualityOf(score int) Quality {
	switch {
	case score >= 90:
		return QualityExcellent
	case score >= 80:
		return QualityGreat
	case score >= 70:
		return QualityGood
	case score >= 60:
		return QualityModerate
	default:
		return QualityLow
	}
}

// Explain renders a one-line summary of the match. Reasons are not shown
// for low matches, and the dash is dropped when there is nothing to list.
func Explain(m MatchScore) string {
	quality := QualityOf(m.Score)
	head := fmt.Sprintf("%s (%d%%)", quality, m.Score)

	if quality == QualityLow {
		return head + " - " + lowMatchSuffix
	}

	if len(m.Reasons) == 0 {
		return head
	}

	return head + " - " + strings.Join(m.Reasons, ", ")
}
