package profiles

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/spigell/match-scorer/internal/compatibility"
)

var ErrNotFound = errors.New("profile not found")

// Source provides read access to profiles owned by another system.
type Source interface {
	List(ctx context.Context) ([]*compatibility.Profile, error)
	Get(ctx context.Context, id string) (*compatibility.Profile, error)
}

// FileSource reads profiles from a YAML or JSON document with a top-level `profiles` list.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) List(ctx context.Context) ([]*compatibility.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read profiles file %s: %w", s.path, err)
	}

	var items []*compatibility.Profile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       dateHook,
		WeaklyTypedInput: true,
		Result:           &items,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(v.Get("profiles")); err != nil {
		return nil, fmt.Errorf("decode profiles from %s: %w", s.path, err)
	}

	return items, nil
}

func (s *FileSource) Get(ctx context.Context, id string) (*compatibility.Profile, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range items {
		if p.ID == id {
			return p, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// dateHook accepts plain dates and RFC3339 timestamps for time.Time fields.
func dateHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}

	raw := strings.TrimSpace(data.(string))
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: expected YYYY-MM-DD or RFC3339", raw)
	}
	return t, nil
}
