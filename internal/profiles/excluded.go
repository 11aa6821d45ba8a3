package profiles

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"
)

// Actors that can dismiss a profile.
const (
	ExcludeActorUser  = "user"
	ExcludeActorAI    = "ai"
	ExcludeActorScore = "score"
)

type ExcludedProfiles struct {
	Items []*ExcludedProfile
}

type ExcludedProfile struct {
	ID         string
	City       string
	Actor      string
	Reason     string `json:",omitempty"`
	ExcludedAt time.Time
}

func (c *Candidates) ToExcluded(actor, reason string) *ExcludedProfiles {
	excluded := &ExcludedProfiles{}
	for _, candidate := range c.Items {
		excluded.Items = append(excluded.Items, &ExcludedProfile{
			ID:         candidate.Profile.ID,
			City:       candidate.Profile.City,
			Actor:      actor,
			Reason:     reason,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// GetExcludedFromFile reads the dismissed profiles list. A missing or
// empty file is an empty list.
func GetExcludedFromFile(path string) (*ExcludedProfiles, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ExcludedProfiles{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedProfiles{}, nil
	}

	var excluded ExcludedProfiles
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedProfiles) Append(s *ExcludedProfiles) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedProfiles) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, p := range e.Items {
		ids = append(ids, p.ID)
	}
	return ids
}

func (e *ExcludedProfiles) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
