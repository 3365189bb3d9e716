// ABOUTME: Hierarchical keyword filter applied to extracted ad titles
// ABOUTME: Levels are ANDed in numeric order, keywords within a level are ORed
package filter

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"ad-monitor/domain"
)

var levelPattern = regexp.MustCompile(`^level(\d+)$`)

// IsLevelName reports whether name has the shape level<digits>.
func IsLevelName(name string) bool {
	return levelPattern.MatchString(name)
}

// Level is one named stage of a URL's filter.
type Level struct {
	Name     string
	Keywords []string
}

// OrderedLevels returns the well-formed levels of f sorted by numeric suffix.
// Malformed level names are dropped.
func OrderedLevels(f domain.URLFilters) []Level {
	levels := make([]Level, 0, len(f))
	for name, keywords := range f {
		if !IsLevelName(name) {
			continue
		}
		levels = append(levels, Level{Name: name, Keywords: keywords})
	}
	slices.SortFunc(levels, func(a, b Level) int {
		if c := compareNumeric(levelSuffix(a.Name), levelSuffix(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return levels
}

func levelSuffix(name string) string {
	return strings.TrimLeft(strings.TrimPrefix(name, "level"), "0")
}

// compareNumeric orders two unsigned decimal strings without leading zeros,
// so arbitrarily long suffixes never overflow.
func compareNumeric(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}

// Evaluator decides whether extracted titles pass the per-URL filters.
type Evaluator struct {
	logger *slog.Logger
}

// NewEvaluator creates an evaluator. A nil logger disables rejection logging.
func NewEvaluator(logger *slog.Logger) *Evaluator {
	return &Evaluator{logger: logger}
}

// Passes reports whether title satisfies every non-empty level of filters.
func (e *Evaluator) Passes(filters domain.URLFilters, title string) bool {
	if len(filters) == 0 {
		return true
	}
	levels := OrderedLevels(filters)
	if len(levels) == 0 {
		return true
	}

	lowered := strings.ToLower(title)
	for _, level := range levels {
		if len(level.Keywords) == 0 {
			continue
		}
		if !matchesAny(lowered, level.Keywords) {
			if e != nil && e.logger != nil {
				e.logger.Debug("title rejected by filter level",
					"level", level.Name,
					"title", title)
			}
			return false
		}
	}
	return true
}

func matchesAny(loweredTitle string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(loweredTitle, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Passes evaluates without logging.
func Passes(filters domain.URLFilters, title string) bool {
	return (*Evaluator)(nil).Passes(filters, title)
}
