package brands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_KnownChain(t *testing.T) {
	f := Default()

	frag, ok := f.Match("  BODYTECH Chicó  ", "Gimnasios")
	require.True(t, ok)
	assert.Equal(t, "bodytech", frag)

	frag, ok = f.Match("Juan Valdez Café Parque 93", "Cafeterías")
	require.True(t, ok)
	assert.Equal(t, "juan valdez", frag)
}

func TestMatch_UnicodeName(t *testing.T) {
	frag, ok := Default().Match("ÉXITO Colina", "Supermercados")
	require.True(t, ok)
	assert.Equal(t, "éxito", frag)
}

func TestMatch_ScopedToCategory(t *testing.T) {
	f := Default()
	_, ok := f.Match("Starbucks Andino", "Dentistas")
	assert.False(t, ok)

	_, ok = f.Match("Starbucks Andino", "Categoría inexistente")
	assert.False(t, ok)
}

func TestMatch_NoMatch(t *testing.T) {
	_, ok := Default().Match("Panadería Doña Rosa", "Restaurantes")
	assert.False(t, ok)
	_, ok = Default().Match("   ", "Restaurantes")
	assert.False(t, ok)
}

func TestMatch_Idempotent(t *testing.T) {
	f := Default()
	frag1, ok1 := f.Match("Smart Fit Usaquén", "Gimnasios")
	frag2, ok2 := f.Match("Smart Fit Usaquén", "Gimnasios")
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, frag1, frag2)
}

func TestNew_OverrideReplacesCategory(t *testing.T) {
	f := New(map[string][]string{
		"Panaderías": {"Pan Pa' Ya"},
		"Gimnasios":  {"mi gym"},
	})

	frag, ok := f.Match("PAN PA' YA Cedritos", "Panaderías")
	require.True(t, ok)
	assert.Equal(t, "pan pa' ya", frag)

	_, ok = f.Match("Bodytech Calle 90", "Gimnasios")
	assert.False(t, ok, "override replaces the default list")

	assert.Contains(t, f.Categories(), "Panaderías")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brands.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Floristerías:\n  - flores de la 93\n"), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	_, ok := f.Match("Flores de la 93", "Floristerías")
	assert.True(t, ok)
	_, ok = f.Match("Bodytech", "Gimnasios")
	assert.True(t, ok, "defaults are kept for other categories")
}

func TestLoadFile_EmptyPath(t *testing.T) {
	f, err := LoadFile("")
	require.NoError(t, err)
	assert.NotEmpty(t, f.Categories())
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- just\n- a list\n"), 0o644))
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brands: parse")
}
