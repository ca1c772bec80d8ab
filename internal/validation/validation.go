package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// RequiredColumns are the spreadsheet headers an upload must provide
var RequiredColumns = []string{"title", "url", "xpath"}

// ValidateUploadName accepts only .xlsx workbooks with a sane file name
func ValidateUploadName(name string) error {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return fmt.Errorf("file name is required")
	}
	if !strings.EqualFold(filepath.Ext(base), ".xlsx") {
		return fmt.Errorf("only .xlsx files are accepted")
	}
	if len(base) > 255 {
		return fmt.Errorf("file name is too long")
	}
	return nil
}

// SanitizeFileName strips path components and anything outside a
// conservative character set
func SanitizeFileName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = regexp.MustCompile(`[^a-zA-Z0-9._-]+`).ReplaceAllString(base, "_")
	base = strings.TrimLeft(base, ".")
	if base == "" {
		return "upload.xlsx"
	}
	return base
}

// MissingColumns returns the required columns absent from header, sorted.
// Header names are compared case-insensitively after trimming.
func MissingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.ToLower(strings.TrimSpace(h))] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	sort.Strings(missing)
	return missing
}

// ValidateListingURL requires an absolute http(s) URL. An empty value is allowed.
func ValidateListingURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

// ValidateLimit clamps a list limit query value into [1, max]
func ValidateLimit(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0, fmt.Errorf("limit must be a number")
	}
	if n <= 0 {
		return 0, fmt.Errorf("limit must be positive")
	}
	if n > max {
		n = max
	}
	return n, nil
}
