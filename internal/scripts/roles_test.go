package scripts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout()

	assert.Equal(t, filepath.Join("dev", "scripts", "translator"), l[RoleTranslator].Dir)
	assert.Equal(t, "translator.py", l[RoleTranslator].Hint)
	assert.Equal(t, "minify_assets.py", l[RoleMinifier].Hint)
	assert.Empty(t, l[RoleConverter].Hint)
	assert.Contains(t, l, RolePortfolio)
}

func TestLayout_Merge(t *testing.T) {
	base := DefaultLayout()
	merged := base.Merge(Layout{
		RoleConverter:  {Dir: "/opt/pdf"},
		RoleTranslator: {Hint: "translate.py"},
	})

	assert.Equal(t, "/opt/pdf", merged[RoleConverter].Dir)
	assert.Equal(t, base[RoleTranslator].Dir, merged[RoleTranslator].Dir)
	assert.Equal(t, "translate.py", merged[RoleTranslator].Hint)

	// base is untouched
	assert.Equal(t, "translator.py", base[RoleTranslator].Hint)
}

func TestLayout_Dirs(t *testing.T) {
	l := Layout{
		RoleTranslator: {Dir: "rel/translator"},
		RoleMinifier:   {Dir: "/abs/min"},
	}

	dirs := l.Dirs("/repo", RoleTranslator, RoleMinifier, RoleConverter)
	assert.Equal(t, []string{filepath.Join("/repo", "rel", "translator"), "/abs/min"}, dirs)
}

func TestLocator_Resolve(t *testing.T) {
	root := t.TempDir()
	layout := DefaultLayout()

	trDir := filepath.Join(root, layout[RoleTranslator].Dir)
	require.NoError(t, os.MkdirAll(trDir, 0o755))
	want := touch(t, trDir, "translator.py", 0)
	touch(t, trDir, "helpers.py", -1)

	loc := Locator{Root: root, Ext: ".py", Layout: layout}

	set, err := loc.Resolve()
	require.NoError(t, err)

	assert.Equal(t, want, set.Path(RoleTranslator))
	assert.True(t, set.Found(RoleTranslator))
	assert.False(t, set.Found(RoleMinifier))
	assert.False(t, set.Found(RoleConverter))

	m := set.Map()
	assert.Equal(t, want, m["translator"])
	assert.Empty(t, m["minifier"])
}

func TestLocator_UnknownRole(t *testing.T) {
	loc := Locator{Root: t.TempDir(), Layout: Layout{}}

	_, err := loc.Locate(RoleTranslator)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown script role")
}

func TestSet_NilSafe(t *testing.T) {
	var s *Set
	assert.Empty(t, s.Path(RoleTranslator))
	assert.False(t, s.Found(RoleConverter))
}

func TestNewSet_Copies(t *testing.T) {
	paths := map[Role]string{RoleMinifier: "/x/min.py"}
	s := NewSet(paths)
	paths[RoleMinifier] = "/changed.py"

	assert.Equal(t, "/x/min.py", s.Path(RoleMinifier))
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RolePortfolio))
	assert.False(t, ValidRole(Role("publisher")))
}
