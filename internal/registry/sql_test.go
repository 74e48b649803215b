package registry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/themedeploy/internal/log"
	"github.com/mattjoyce/themedeploy/internal/storage"
	"github.com/mattjoyce/themedeploy/internal/theme"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR") // Suppress logs in tests
	os.Exit(m.Run())
}

func openFixture(t *testing.T, prefix string) *sql.DB {
	t.Helper()

	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "registry.db"), prefix)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	themes := []struct {
		id, parent int
		path, area string
	}{
		{1, 0, "Magento/blank", "frontend"},
		{2, 1, "Magento/luma", "frontend"},
		{3, 0, "Magento/backend", "adminhtml"},
		{4, 0, "Hyva/reset", "frontend"},
		{5, 4, "Hyva/default", "frontend"},
		{6, 5, "Vendor/mid", "frontend"},
		{7, 6, "Vendor/child", "frontend"},
		{8, 2, "Vendor/luma-child", "frontend"},
		{9, 99, "Vendor/orphan", "frontend"},
	}
	for _, th := range themes {
		var parent any
		if th.parent != 0 {
			parent = th.parent
		}
		_, err := db.Exec("INSERT INTO "+prefix+"theme (theme_id, parent_id, theme_path, area) VALUES (?, ?, ?, ?)",
			th.id, parent, th.path, th.area)
		require.NoError(t, err)
	}
	return db
}

func setConfig(t *testing.T, db *sql.DB, prefix, path, value string) {
	t.Helper()
	_, err := db.Exec("INSERT INTO "+prefix+"core_config_data (path, value) VALUES (?, ?)", path, value)
	require.NoError(t, err)
}

func TestLookupParent(t *testing.T) {
	reg := New(openFixture(t, ""), "")
	ctx := context.Background()

	parent, ok, err := reg.LookupParent(ctx, "Vendor/child")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Vendor/mid", parent)

	_, ok, err = reg.LookupParent(ctx, "Hyva/reset")
	require.NoError(t, err)
	assert.False(t, ok, "root theme has no parent")

	_, ok, err = reg.LookupParent(ctx, "Unknown/theme")
	require.NoError(t, err)
	assert.False(t, ok, "unknown theme is treated as a root")

	_, ok, err = reg.LookupParent(ctx, "Vendor/orphan")
	require.NoError(t, err)
	assert.False(t, ok, "dangling parent id ends the chain")
}

func TestLookupParentFailsOnClosedDB(t *testing.T) {
	db := openFixture(t, "")
	reg := New(db, "")
	require.NoError(t, db.Close())

	_, _, err := reg.LookupParent(context.Background(), "Vendor/child")
	assert.Error(t, err)
}

func TestRegistryDrivesResolverAndClassifier(t *testing.T) {
	reg := New(openFixture(t, ""), "")
	ctx := context.Background()

	chain := theme.NewResolver(reg, theme.DefaultMaxDepth).ResolveChain(ctx, "Vendor/child")
	assert.Equal(t, theme.Chain{"Vendor/child", "Vendor/mid", "Hyva/default", "Hyva/reset"}, chain)

	c := theme.NewClassifier(reg, theme.DefaultFastPathRoots, theme.DefaultMaxDepth)
	assert.Equal(t, theme.FamilyFastPath, c.Classify(ctx, "Vendor/child"))
	assert.Equal(t, theme.FamilyStandard, c.Classify(ctx, "Vendor/luma-child"))
}

func TestActiveThemesFrontend(t *testing.T) {
	const prefix = "mg_"
	db := openFixture(t, prefix)
	setConfig(t, db, prefix, "design/theme/theme_id", "8")
	setConfig(t, db, prefix, "design/theme/theme_id", "8")
	setConfig(t, db, prefix, "design/theme/theme_id", "3") // adminhtml theme, filtered out
	setConfig(t, db, prefix, "hyva_theme_fallback/general/theme_full_path", "frontend/Hyva/default")
	setConfig(t, db, prefix, "hyva_theme_fallback/general/theme_full_path", "garbage")

	themes, err := New(db, prefix).ActiveThemes(context.Background(), theme.AreaFrontend)
	require.NoError(t, err)
	assert.Equal(t, []string{"Vendor/luma-child", "Hyva/default"}, themes)
}

func TestActiveThemesDefaults(t *testing.T) {
	reg := New(openFixture(t, ""), "")
	ctx := context.Background()

	front, err := reg.ActiveThemes(ctx, theme.AreaFrontend)
	require.NoError(t, err)
	assert.Equal(t, []string{"Magento/luma"}, front)

	admin, err := reg.ActiveThemes(ctx, theme.AreaAdminhtml)
	require.NoError(t, err)
	assert.Equal(t, []string{"Magento/backend"}, admin)

	_, err = reg.ActiveThemes(ctx, "base")
	assert.Error(t, err)
}

func TestActiveLocales(t *testing.T) {
	db := openFixture(t, "")
	setConfig(t, db, "", "general/locale/code", "nl_NL")
	setConfig(t, db, "", "general/locale/code", "en_US")
	setConfig(t, db, "", "general/locale/code", "not a locale")
	_, err := db.Exec("INSERT INTO admin_user (username, is_active, interface_locale) VALUES ('a', 1, 'de_DE'), ('b', 0, 'fr_FR'), ('c', 1, 'de_DE')")
	require.NoError(t, err)

	reg := New(db, "")
	ctx := context.Background()

	front, err := reg.ActiveLocales(ctx, theme.AreaFrontend)
	require.NoError(t, err)
	assert.Equal(t, []string{"en_US", "nl_NL"}, front)

	admin, err := reg.ActiveLocales(ctx, theme.AreaAdminhtml)
	require.NoError(t, err)
	assert.Equal(t, []string{"de_DE"}, admin)
}

func TestActiveLocalesDefault(t *testing.T) {
	locales, err := New(openFixture(t, ""), "").ActiveLocales(context.Background(), theme.AreaFrontend)
	require.NoError(t, err)
	assert.Equal(t, []string{"en_US"}, locales)
}

func TestFilterLocales(t *testing.T) {
	in := []string{"en_US", " fr_FR ", "en_US", "zh_Hans_CN", "sr_Latn", "EN_us", "", "fil_PH"}
	assert.Equal(t, []string{"en_US", "fr_FR", "fil_PH"}, FilterLocales(in))
}

func TestStripAreaPrefix(t *testing.T) {
	got, ok := stripAreaPrefix("frontend/Hyva/default-csp")
	assert.True(t, ok)
	assert.Equal(t, "Hyva/default-csp", got)

	_, ok = stripAreaPrefix("Hyva/default")
	assert.False(t, ok)
}
