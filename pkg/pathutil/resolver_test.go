package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNewDefaults(t *testing.T) {
	p := New(Config{Home: "/data/ace"})
	assert.Equal(t, "/data/ace", p.GetHome())
	assert.Equal(t, filepath.Join("/data/ace", "ace2gnc.db"), p.GetDatabasePath())

	p = New(Config{Home: "/data/ace", DatabasePath: "/tmp/x.db"})
	assert.Equal(t, "/tmp/x.db", p.GetDatabasePath())
}

func TestRulesAndRatesPaths(t *testing.T) {
	home := t.TempDir()
	p := New(Config{Home: home})

	assert.Equal(t, "", p.GetRulesPath())
	assert.Equal(t, "", p.GetRatesPath())

	for _, name := range []string{"rules.yaml", "rates.xml"} {
		assert.NoError(t, os.WriteFile(filepath.Join(home, name), []byte("x"), 0644))
	}
	assert.Equal(t, filepath.Join(home, "rules.yaml"), p.GetRulesPath())
	assert.Equal(t, filepath.Join(home, "rates.xml"), p.GetRatesPath())

	explicit := New(Config{Home: home, RulesPath: "/etc/rules.yaml", RatesPath: "/etc/rates.xml"})
	assert.Equal(t, "/etc/rules.yaml", explicit.GetRulesPath())
	assert.Equal(t, "/etc/rates.xml", explicit.GetRatesPath())
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		input  string
		output string
	}{
		{"money.xml", "money.gnucash"},
		{"export/money.XML", "export/money.gnucash"},
		{"export/money", "export/money.gnucash"},
		{"a.b/money.backup.xml", "a.b/money.backup.gnucash"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.output, DefaultOutputPath(tt.input))
		})
	}

	assert.Equal(t, "out/book.gnucash.gz", GzipPath("out/book.gnucash"))
}

func TestEnsureParentDir(t *testing.T) {
	p := New(Config{})
	file := filepath.Join(t.TempDir(), "a", "b", "book.gnucash")

	assert.NoError(t, p.EnsureParentDir(file))
	assert.False(t, p.FileExists(file))
	assert.False(t, p.FileExists(filepath.Dir(file)))

	assert.NoError(t, os.WriteFile(file, nil, 0644))
	assert.True(t, p.FileExists(file))
}
