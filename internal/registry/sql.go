// Package registry reads theme inheritance and active theme/locale configuration from a
// Magento database.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mattjoyce/themedeploy/internal/log"
	"github.com/mattjoyce/themedeploy/internal/theme"
)

const (
	pathDesignTheme   = "design/theme/theme_id"
	pathHyvaFallback  = "hyva_theme_fallback/general/theme_full_path"
	pathLocaleCode    = "general/locale/code"
	defaultFrontend   = "Magento/luma"
	defaultAdminhtml  = "Magento/backend"
	defaultLocaleCode = "en_US"
)

var localePattern = regexp.MustCompile(`^[a-z]{2,3}_[A-Z]{2,4}$`)

// SQLRegistry answers registry queries against the theme and core_config_data tables.
type SQLRegistry struct {
	db     *sql.DB
	prefix string
	logger *slog.Logger
}

// New creates a SQLRegistry. tablePrefix is prepended to every table name.
func New(db *sql.DB, tablePrefix string) *SQLRegistry {
	return &SQLRegistry{
		db:     db,
		prefix: tablePrefix,
		logger: log.WithComponent("registry"),
	}
}

func (r *SQLRegistry) table(name string) string {
	return "`" + r.prefix + name + "`"
}

// Ping checks the database is reachable.
func (r *SQLRegistry) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// LookupParent implements theme.Registry. Unknown themes, themes without a parent and
// parents without a path all report ok=false.
func (r *SQLRegistry) LookupParent(ctx context.Context, themePath string) (string, bool, error) {
	query := fmt.Sprintf(
		"SELECT c.parent_id, p.theme_path FROM %s c LEFT JOIN %s p ON p.theme_id = c.parent_id WHERE c.theme_path = ? ORDER BY c.theme_id LIMIT 1",
		r.table("theme"), r.table("theme"),
	)

	var parentID sql.NullInt64
	var parentPath sql.NullString
	err := r.db.QueryRowContext(ctx, query, themePath).Scan(&parentID, &parentPath)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup parent of %q: %w", themePath, err)
	}
	if !parentID.Valid || parentID.Int64 == 0 || !parentPath.Valid || parentPath.String == "" {
		return "", false, nil
	}
	return parentPath.String, true, nil
}

// ActiveThemes returns the themes configured for area, deduplicated in discovery order.
// Frontend includes the Hyvä fallback theme and defaults to Magento/luma; adminhtml
// defaults to Magento/backend.
func (r *SQLRegistry) ActiveThemes(ctx context.Context, area string) ([]string, error) {
	if err := theme.ValidateArea(area); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT DISTINCT t.theme_path FROM %s c JOIN %s t ON c.value = t.theme_id WHERE c.path = ? AND t.area = ? AND t.theme_path IS NOT NULL ORDER BY t.theme_path",
		r.table("core_config_data"), r.table("theme"),
	)
	themes, err := r.strings(ctx, query, pathDesignTheme, area)
	if err != nil {
		return nil, fmt.Errorf("active %s themes: %w", area, err)
	}

	switch area {
	case theme.AreaFrontend:
		fallback, err := r.hyvaFallbackThemes(ctx)
		if err != nil {
			return nil, err
		}
		themes = append(themes, fallback...)
		if len(themes) == 0 {
			themes = append(themes, defaultFrontend)
		}
	case theme.AreaAdminhtml:
		if len(themes) == 0 {
			themes = append(themes, defaultAdminhtml)
		}
	}

	r.logger.Debug("active themes", "area", area, "themes", themes)
	return dedupe(themes), nil
}

func (r *SQLRegistry) hyvaFallbackThemes(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT value FROM %s WHERE path = ? AND value IS NOT NULL ORDER BY value",
		r.table("core_config_data"),
	)
	values, err := r.strings(ctx, query, pathHyvaFallback)
	if err != nil {
		return nil, fmt.Errorf("hyva fallback themes: %w", err)
	}

	var themes []string
	for _, v := range values {
		if t, ok := stripAreaPrefix(v); ok {
			themes = append(themes, t)
		}
	}
	return themes, nil
}

// stripAreaPrefix turns "frontend/Vendor/theme" into "Vendor/theme".
func stripAreaPrefix(fullPath string) (string, bool) {
	parts := strings.Split(strings.Trim(fullPath, "/"), "/")
	if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
		return "", false
	}
	return parts[1] + "/" + parts[2], true
}

// ActiveLocales returns the locale codes in use for area. Frontend reads the configured
// store locales, adminhtml the interface locales of active admin users. Values that are
// not locale codes are dropped; en_US is returned when nothing is configured.
func (r *SQLRegistry) ActiveLocales(ctx context.Context, area string) ([]string, error) {
	if err := theme.ValidateArea(area); err != nil {
		return nil, err
	}

	var query string
	var args []any
	switch area {
	case theme.AreaFrontend:
		query = fmt.Sprintf(
			"SELECT DISTINCT value FROM %s WHERE path = ? AND value IS NOT NULL ORDER BY value",
			r.table("core_config_data"),
		)
		args = []any{pathLocaleCode}
	default:
		query = fmt.Sprintf(
			"SELECT DISTINCT interface_locale FROM %s WHERE is_active = 1 AND interface_locale IS NOT NULL ORDER BY interface_locale",
			r.table("admin_user"),
		)
	}

	values, err := r.strings(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("active %s locales: %w", area, err)
	}

	locales := FilterLocales(values)
	if len(locales) == 0 {
		locales = []string{defaultLocaleCode}
	}
	r.logger.Debug("active locales", "area", area, "locales", locales)
	return locales, nil
}

// FilterLocales keeps well-formed locale codes such as en_US or fr_FR, deduplicated.
func FilterLocales(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if localePattern.MatchString(v) {
			out = append(out, v)
		}
	}
	return dedupe(out)
}

func (r *SQLRegistry) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v.Valid && v.String != "" {
			out = append(out, v.String)
		}
	}
	return out, rows.Err()
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
