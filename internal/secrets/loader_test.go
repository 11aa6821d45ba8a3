package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MATCH_SCORER_TEST_KEY", " from-env ")

	tests := []struct {
		name    string
		src     Source
		expect  string
		wantErr string
	}{
		{name: "inline", src: Source{Value: " inline "}, expect: "inline"},
		{name: "file wins", src: Source{Value: "inline", File: keyFile, Env: "MATCH_SCORER_TEST_KEY"}, expect: "from-file"},
		{name: "env before inline", src: Source{Value: "inline", Env: "MATCH_SCORER_TEST_KEY"}, expect: "from-env"},
		{name: "unset env falls back", src: Source{Value: "inline", Env: "MATCH_SCORER_TEST_UNSET"}, expect: "inline"},
		{name: "missing", src: Source{Name: "gemini api key"}, wantErr: "gemini api key is not configured"},
		{name: "empty file", src: Source{File: emptyFile}, wantErr: "is empty"},
		{name: "unreadable file", src: Source{File: filepath.Join(dir, "absent")}, wantErr: "reading secret from file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
