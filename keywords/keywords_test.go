package keywords

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/a-h/listingwriter/failure"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func TestLoadKeywords(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		expected []string
	}{
		{
			name:     "JSON array",
			file:     "keywords.json",
			content:  `["Stuhl", "Eiche", "Holz"]`,
			expected: []string{"Stuhl", "Eiche", "Holz"},
		},
		{
			name:     "JSON object",
			file:     "keywords.json",
			content:  `{"keywords": ["Stuhl", "Eiche"]}`,
			expected: []string{"Stuhl", "Eiche"},
		},
		{
			name:     "YAML list",
			file:     "keywords.yaml",
			content:  "- Stuhl\n- Eiche\n",
			expected: []string{"Stuhl", "Eiche"},
		},
		{
			name:     "YAML object",
			file:     "keywords.yml",
			content:  "keywords:\n  - Stuhl\n  - Eiche\n",
			expected: []string{"Stuhl", "Eiche"},
		},
		{
			name:     "CSV with header",
			file:     "keywords.csv",
			content:  "keyword,volume\nStuhl,100\nEiche,50\n",
			expected: []string{"Stuhl", "Eiche"},
		},
		{
			name:     "CSV without header",
			file:     "keywords.csv",
			content:  "Stuhl\nEiche\n",
			expected: []string{"Stuhl", "Eiche"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := LoadKeywords(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, actual); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestLoadEmbeddings(t *testing.T) {
	t.Run("rows are parsed in order", func(t *testing.T) {
		path := writeFile(t, "embeddings.csv", "d0,d1,d2\n1,0,0\n0, 1, 0\n0.5,0.25,-1\n")
		actual, err := LoadEmbeddings(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := [][]float32{{1, 0, 0}, {0, 1, 0}, {0.5, 0.25, -1}}
		if diff := cmp.Diff(expected, actual); diff != "" {
			t.Error(diff)
		}
	})
	t.Run("non-finite values are errors", func(t *testing.T) {
		for _, content := range []string{"1,0\nNaN,1\n", "NaN,0\n1,1\n", "1,0\n0,+Inf\n", "-inf,0\n"} {
			_, err := LoadEmbeddings(writeFile(t, "embeddings.csv", content))
			if !failure.Is(err, failure.Configuration) {
				t.Errorf("%q: expected a configuration error, got %v", content, err)
			}
		}
	})
	t.Run("non-numeric values after the first row are errors", func(t *testing.T) {
		path := writeFile(t, "embeddings.csv", "1,0\nx,1\n")
		_, err := LoadEmbeddings(path)
		if !failure.Is(err, failure.Configuration) {
			t.Errorf("expected a configuration error, got %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	kwPath := writeFile(t, "keywords.json", `["a", "b"]`)
	t.Run("aligned files load", func(t *testing.T) {
		embPath := writeFile(t, "embeddings.csv", "1,0\n0,1\n")
		s, err := Load(kwPath, embPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Len() != 2 || !s.HasKeywords() || !s.HasEmbeddings() {
			t.Errorf("unexpected set: len=%d keywords=%v embeddings=%v", s.Len(), s.HasKeywords(), s.HasEmbeddings())
		}
	})
	t.Run("mismatched lengths are a configuration error", func(t *testing.T) {
		embPath := writeFile(t, "embeddings.csv", "1,0\n0,1\n1,1\n")
		_, err := Load(kwPath, embPath)
		if !failure.Is(err, failure.Configuration) {
			t.Errorf("expected a configuration error, got %v", err)
		}
	})
	t.Run("ragged rows are a configuration error", func(t *testing.T) {
		embPath := writeFile(t, "embeddings.csv", "1,0\n0,1,1\n")
		_, err := Load(kwPath, embPath)
		if !failure.Is(err, failure.Configuration) {
			t.Errorf("expected a configuration error, got %v", err)
		}
	})
	t.Run("a missing file is a configuration error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.json"), "")
		if !failure.Is(err, failure.Configuration) {
			t.Errorf("expected a configuration error, got %v", err)
		}
	})
	t.Run("no files gives an empty set", func(t *testing.T) {
		s, err := Load("", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Len() != 0 || s.HasKeywords() || s.HasEmbeddings() {
			t.Error("expected an empty set")
		}
	})
}

func TestSetIsImmutable(t *testing.T) {
	kws := []string{"a", "b"}
	embs := [][]float32{{1, 0}, {0, 1}}
	s, err := New(kws, embs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kws[0] = "changed"
	embs[0][0] = 42
	s.Keywords()[1] = "changed"
	s.Embeddings(-1)[1][1] = 42

	if diff := cmp.Diff([]string{"a", "b"}, s.Keywords()); diff != "" {
		t.Error(diff)
	}
	if diff := cmp.Diff([][]float32{{1, 0}, {0, 1}}, s.Embeddings(-1)); diff != "" {
		t.Error(diff)
	}
	if diff := cmp.Diff([][]float32{{1, 0}}, s.Embeddings(1)); diff != "" {
		t.Error(diff)
	}
}
