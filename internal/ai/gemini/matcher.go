package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/ai"
	"github.com/spigell/match-scorer/internal/compatibility"
	"github.com/spigell/match-scorer/internal/logger"
	"github.com/spigell/match-scorer/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength     = 200
	maxUserInstructionRunes = 500
	defaultTone             = "Warm"
	noneValue               = "none"
)

// PromptOverrides are user supplied additions to the review prompt.
type PromptOverrides struct {
	ExtraCriteria    string `mapstructure:"extra-criteria"`
	DealBreakers     string `mapstructure:"deal-breakers"`
	Tone             string `mapstructure:"tone"`
	UserInstructions string `mapstructure:"user-instructions"`
}

type Matcher struct {
	generator contentGenerator
	minScore  float64
	maxLogLen int
	logger    *zap.Logger
	overrides PromptOverrides
}

func NewMatcher(generator contentGenerator, minScore float64, maxLogLength int, log *zap.Logger) *Matcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Matcher{
		generator: generator,
		minScore:  minScore,
		maxLogLen: maxLogLength,
		logger:    logger.WithCommonFields(log, "gemini", generator.Model()),
	}
}

func (m *Matcher) SetPromptOverrides(o PromptOverrides) {
	m.overrides = o
}

func (m *Matcher) Evaluate(ctx context.Context, viewer, candidate *compatibility.Profile, match *compatibility.MatchScore) (*ai.Review, error) {
	if viewer == nil {
		return nil, errors.New("viewer profile is required")
	}
	if candidate == nil {
		return nil, errors.New("candidate profile is required")
	}

	viewerJSON, err := json.MarshalIndent(viewer, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal viewer payload: %w", err)
	}

	candidateJSON, err := json.MarshalIndent(reviewPayload(candidate), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candidate payload: %w", err)
	}

	scoreJSON := []byte("null")
	if match != nil {
		if scoreJSON, err = json.Marshal(match); err != nil {
			return nil, fmt.Errorf("marshal score payload: %w", err)
		}
	}

	prompt := m.buildPrompt(string(viewerJSON), string(candidateJSON), string(scoreJSON))

	log := m.logger.With(logger.MatchFields(viewer.ID, candidate.ID)...)
	log.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, m.maxLogLen)),
	)

	raw, err := m.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	log.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, m.maxLogLen)),
	)

	review, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if m.minScore > 0 && review.Score < m.minScore {
		log.Debug("set fit to false by score threshold",
			zap.Float64("score", review.Score),
			zap.Float64("threshold", m.minScore),
		)
		review.Fit = false
	}

	review.Raw = raw
	return review, nil
}

// reviewPayload hides the candidate's own partner preferences and contact ids.
func reviewPayload(p *compatibility.Profile) map[string]any {
	return map[string]any{
		"gender":         p.Gender,
		"date_of_birth":  p.DateOfBirth.Format("2006-01-02"),
		"height_cm":      p.HeightCm,
		"marital_status": p.MaritalStatus,
		"city":           p.City,
		"state":          p.State,
		"country":        p.Country,
		"religion":       p.Religion,
		"community":      p.Community,
		"education":      p.Education,
		"profession":     p.Profession,
		"diet":           p.Diet,
		"smoking":        p.Smoking,
		"drinking":       p.Drinking,
	}
}

func (m *Matcher) buildPrompt(viewerJSON, candidateJSON, scoreJSON string) string {
	tone := singleLine(m.overrides.Tone)
	if tone == "" {
		tone = defaultTone
	}

	r := strings.NewReplacer(
		"{{EXTRA_CRITERIA}}", orNone(singleLine(m.overrides.ExtraCriteria)),
		"{{DEAL_BREAKERS}}", orNone(singleLine(m.overrides.DealBreakers)),
		"{{TONE}}", tone,
		"{{USER_INSTRUCTIONS}}", userInstructionsBlock(m.overrides.UserInstructions),
		"{{VIEWER_JSON}}", viewerJSON,
		"{{CANDIDATE_JSON}}", candidateJSON,
		"{{SCORE_JSON}}", scoreJSON,
	)
	return r.Replace(promptTemplate)
}

// sanitize neutralizes section markers so user text cannot open a new prompt section.
func sanitize(s string) string {
	s = strings.NewReplacer("[", "(", "]", ")", "{{", "(", "}}", ")").Replace(s)
	return strings.TrimSpace(s)
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(sanitize(s)), " ")
}

func orNone(s string) string {
	if s == "" {
		return noneValue
	}
	return s
}

func userInstructionsBlock(raw string) string {
	text := sanitize(raw)
	if runes := []rune(text); len(runes) > maxUserInstructionRunes {
		text = strings.TrimSpace(string(runes[:maxUserInstructionRunes]))
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, "  - "+line)
		}
	}

	if len(lines) == 0 {
		return "  - " + noneValue
	}
	return strings.Join(lines, "\n")
}

func parseResponse(raw string) (*ai.Review, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}

	return &ai.Review{
		Fit:     coerceBool(data["fit"]),
		Score:   score,
		Reason:  coerceString(data["reason"]),
		Message: coerceString(data["message"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start > 0 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
