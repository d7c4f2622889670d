package cities

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestBuildIndex(t *testing.T) {
	req := require.New(t)

	ix := Build([]string{"Москва", "Омск", "Казань"})
	names, letters := ix.Stats()
	req.Equal(3, names)
	req.Equal(3, letters)

	req.True(ix.Contains("москва"))
	req.True(ix.Contains("омск"))
	req.True(ix.Contains("казань"))
	req.False(ix.Contains("Москва")) // lookups take normalized names

	req.Equal(map[string]struct{}{"москва": {}}, ix.Bucket('м'))
	req.Nil(ix.Bucket('я'))
}

func TestBuildDeduplicatesAndDropsEmpties(t *testing.T) {
	req := require.New(t)

	ix := Build([]string{"Москва", "москва", " МОСКВА ", "", "---", "Омск"})
	names, _ := ix.Stats()
	req.Equal(2, names)
}

func TestBucketsPartitionTheSet(t *testing.T) {
	req := require.New(t)

	raw, err := LoadNames("")
	req.NoError(err)
	ix := Build(raw)
	total, _ := ix.Stats()

	// Every normalized name lives in exactly the bucket of its first letter,
	// and the buckets sum back to the full set.
	sum := 0
	for r := 'а'; r <= 'я'; r++ {
		for name := range ix.Bucket(r) {
			first, _ := utf8.DecodeRuneInString(name)
			req.Equal(r, first)
			req.True(ix.Contains(name))
			sum++
		}
	}
	req.Equal(total, sum)
}

func TestLoadNamesFromFile(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "cities.json")
	req.NoError(os.WriteFile(path, []byte(`["Москва","Омск"]`), 0o644))

	names, err := LoadNames(path)
	req.NoError(err)
	req.Equal([]string{"Москва", "Омск"}, names)
}

func TestLoadNamesErrors(t *testing.T) {
	req := require.New(t)

	_, err := LoadNames(filepath.Join(t.TempDir(), "missing.json"))
	req.Error(err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	req.NoError(os.WriteFile(bad, []byte(`{"not":"a list"}`), 0o644))
	_, err = LoadNames(bad)
	req.Error(err)

	empty := filepath.Join(t.TempDir(), "empty.json")
	req.NoError(os.WriteFile(empty, []byte(`[]`), 0o644))
	_, err = LoadNames(empty)
	req.Error(err)
}

func TestLoadNamesEmbeddedDefault(t *testing.T) {
	req := require.New(t)

	names, err := LoadNames("")
	req.NoError(err)
	req.NotEmpty(names)
	req.Empty(Lint(names), "embedded default list should be clean")
}

func TestLint(t *testing.T) {
	req := require.New(t)

	issues := Lint([]string{"Москва", " Омск", "", "москва"})
	req.Len(issues, 3)
	req.Contains(issues[0], "whitespace")
	req.Contains(issues[1], "empty")
	req.Contains(issues[2], "duplicate")
}
