package books

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"photobook/internal/database"
	"photobook/internal/logging"
)

var requiredFields = []string{"id", "child", "month", "start_date", "end_date"}

// Load reads the book definitions from a JSON config file. Invalid
// entries are skipped, never fatal: every problem is reported as a
// warning so the service can start with whatever books are usable and
// surface the rest through the health endpoint.
func Load(path string) ([]database.Book, []string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, []string{fmt.Sprintf("Books config not found at %s", path)}
		}
		return nil, []string{fmt.Sprintf("Failed to read books config: %v", err)}
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, []string{fmt.Sprintf("Failed to parse books config: %v", err)}
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, []string{"Books config must be a JSON array"}
	}

	var books []database.Book
	var warnings []string
	seen := make(map[string]bool)

	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			warnings = append(warnings, "Skipped invalid book entry: not an object")
			continue
		}

		if missing := missingFields(obj); len(missing) > 0 {
			warnings = append(warnings, fmt.Sprintf("Skipped book missing fields: %v", missing))
			continue
		}

		id := strings.TrimSpace(asString(obj["id"]))
		if id == "" {
			warnings = append(warnings, "Skipped book with empty id")
			continue
		}
		if seen[id] {
			warnings = append(warnings, fmt.Sprintf("Skipped duplicate book id: %s", id))
			continue
		}

		month, monthOK := asMonth(obj["month"])
		start, startErr := parseDate(obj["start_date"])
		end, endErr := parseDate(obj["end_date"])
		if !monthOK || startErr != nil || endErr != nil {
			warnings = append(warnings, fmt.Sprintf("Skipped book with invalid date/month: %s", id))
			continue
		}

		if month < 1 || month > 12 {
			warnings = append(warnings, fmt.Sprintf("Skipped book with month outside 1-12: %s", id))
			continue
		}
		if start.After(end) {
			warnings = append(warnings, fmt.Sprintf("Skipped book with start_date > end_date: %s", id))
			continue
		}

		seen[id] = true
		books = append(books, database.Book{
			ID:        id,
			Child:     strings.TrimSpace(asString(obj["child"])),
			Month:     month,
			StartDate: start.Format(database.DateOnlyLayout),
			EndDate:   end.Format(database.DateOnlyLayout),
		})
	}

	logging.Info("Books config loaded: %d books, %d warnings", len(books), len(warnings))
	return books, warnings
}

func missingFields(obj map[string]any) []string {
	var missing []string
	for _, f := range requiredFields {
		if _, ok := obj[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

// asMonth accepts JSON numbers (truncated) and numeric strings.
func asMonth(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(math.Trunc(n)), true
	case string:
		m, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return m, true
	default:
		return 0, false
	}
}

func parseDate(v any) (time.Time, error) {
	return time.Parse(database.DateOnlyLayout, strings.TrimSpace(asString(v)))
}
