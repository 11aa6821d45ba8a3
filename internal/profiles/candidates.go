package profiles

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spigell/match-scorer/internal/compatibility"
)

const (
	CandidateIDField     = "ID"
	CandidateGenderField = "Gender"
	CandidateCityField   = "City"
)

type Candidates struct {
	Items []*Candidate
}

// Candidate is a profile considered for a viewer together with its scoring results.
type Candidate struct {
	Profile     *compatibility.Profile    `json:"profile"`
	Match       *compatibility.MatchScore `json:"match,omitempty"`
	Explanation string                    `json:"explanation,omitempty"`
	AI          *AIReview                 `json:"ai,omitempty"`
}

type AIReview struct {
	Fit     bool    `json:"fit"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason,omitempty"`
	Message string  `json:"message,omitempty"`
	Raw     string  `json:"-"`
	Error   string  `json:"error,omitempty"`
}

// NewCandidates wraps profiles into an unscored candidate list.
func NewCandidates(items []*compatibility.Profile) *Candidates {
	c := &Candidates{Items: make([]*Candidate, 0, len(items))}
	for _, p := range items {
		c.Items = append(c.Items, &Candidate{Profile: p})
	}
	return c
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

func (c *Candidates) IDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, candidate := range c.Items {
		ids = append(ids, candidate.Profile.ID)
	}
	return ids
}

func (c *Candidates) FindByID(id string) *Candidate {
	for _, candidate := range c.Items {
		if candidate.Profile.ID == id {
			return candidate
		}
	}
	return nil
}

// Exclude removes every candidate whose field equals one of targets and
// returns the removed IDs.
func (c *Candidates) Exclude(field string, targets []string) []string {
	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[target] = struct{}{}
	}

	var excluded []string
	kept := c.Items[:0]
	for _, candidate := range c.Items {
		if _, ok := set[candidate.GetStringField(field)]; ok {
			excluded = append(excluded, candidate.Profile.ID)
			continue
		}
		kept = append(kept, candidate)
	}
	clear(c.Items[len(kept):])
	c.Items = kept

	return excluded
}

// RemoveByIndex removes a candidate from the list by index. Do not preserve order.
func (c *Candidates) RemoveByIndex(idx int) {
	c.Items[idx] = c.Items[len(c.Items)-1]
	c.Items = c.Items[:len(c.Items)-1]
}

// SortByScore orders scored candidates by score descending, then by ID.
// Unscored candidates go last.
func (c *Candidates) SortByScore() {
	sort.SliceStable(c.Items, func(i, j int) bool {
		a, b := c.Items[i], c.Items[j]
		switch {
		case a.Match == nil && b.Match == nil:
			return a.Profile.ID < b.Profile.ID
		case a.Match == nil:
			return false
		case b.Match == nil:
			return true
		case a.Match.Score != b.Match.Score:
			return a.Match.Score > b.Match.Score
		default:
			return a.Profile.ID < b.Profile.ID
		}
	})
}

// Limit keeps the first n candidates. Non-positive n keeps everything.
func (c *Candidates) Limit(n int) {
	if n <= 0 || n >= len(c.Items) {
		return
	}
	clear(c.Items[n:])
	c.Items = c.Items[:n]
}

func (c *Candidates) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "matches_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByCity groups the candidates by city for a quick overview.
func (c *Candidates) ReportByCity() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, candidate := range c.Items {
		p := candidate.Profile
		key := p.City
		if p.State != "" {
			key = fmt.Sprintf("%s (%s)", p.City, p.State)
		}

		entry := map[string]string{
			"id":         p.ID,
			"religion":   strings.TrimSpace(p.Religion + " " + p.Community),
			"education":  p.Education,
			"profession": p.Profession,
		}

		if candidate.Match != nil {
			entry["score"] = fmt.Sprintf("%d", candidate.Match.Score)
			entry["explanation"] = candidate.Explanation
		}

		if candidate.AI != nil {
			if candidate.AI.Error != "" {
				entry["ai_error"] = candidate.AI.Error
			} else {
				entry["ai_fit"] = fmt.Sprintf("%t", candidate.AI.Fit)
				entry["ai_score"] = fmt.Sprintf("%.2f", candidate.AI.Score)
				entry["ai_reason"] = candidate.AI.Reason
				entry["ai_message"] = candidate.AI.Message
			}
		}

		report[key] = append(report[key], entry)
	}
	return report
}

func (c *Candidate) GetStringField(name string) string {
	switch name {
	case CandidateIDField:
		return c.Profile.ID
	case CandidateGenderField:
		return c.Profile.Gender
	case CandidateCityField:
		return c.Profile.City
	default:
		return ""
	}
}
