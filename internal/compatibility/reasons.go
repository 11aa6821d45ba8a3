package compatibility

import "fmt"

const maxReasons = 3

type reasonRule struct {
	applies func(viewer, candidate *Profile, b Breakdown) bool
	text    func(viewer, candidate *Profile) string
}

// reasonRules are evaluated in order; the order is the priority.
var reasonRules = []reasonRule{
	{
		applies: func(_, _ *Profile, b Breakdown) bool { return b.Religion >= 80 },
		text:    func(v, _ *Profile) string { return fmt.Sprintf("Same %s community", v.Religion) },
	},
	{
		applies: func(_, _ *Profile, b Breakdown) bool { return b.Location >= 80 },
		text: func(v, c *Profile) string {
			if v.City == c.City {
				return "Both from " + v.City
			}
			return "Both from " + v.State
		},
	},
	{
		applies: func(_, _ *Profile, b Breakdown) bool { return b.Education >= 85 },
		text:    constText("Similar education background"),
	},
	{
		applies: func(_, _ *Profile, b Breakdown) bool { return b.Age >= 80 },
		text:    constText("Compatible age range"),
	},
	{
		applies: func(_, _ *Profile, b Breakdown) bool { return b.Lifestyle >= 80 },
		text:    constText("Similar lifestyle preferences"),
	},
	{
		applies: func(_, _ *Profile, b Breakdown) bool { return b.Preferences >= 80 },
		text:    constText("Matches your preferences"),
	},
	{
		applies: func(v, c *Profile, _ Breakdown) bool { return v.Profession != "" && v.Profession == c.Profession },
		text:    func(v, _ *Profile) string { return "Both in " + v.Profession },
	},
}

func constText(s string) func(_, _ *Profile) string {
	return func(_, _ *Profile) string { return s }
}

func reasons(viewer, candidate *Profile, b Breakdown) []string {
	out := make([]string, 0, maxReasons)
	for _, rule := range reasonRules {
		if len(out) == maxReasons {
			break
		}
		if rule.applies(viewer, candidate, b) {
			out = append(out, rule.text(viewer, candidate))
		}
	}
	return out
}
