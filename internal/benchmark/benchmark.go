// Package benchmark scores observed metric averages against static
// domain-average tables.
package benchmark

import (
	"math"
	"sort"
	"strings"

	"scoutlens/pkg/contracts/domain"
)

// Level selects which competition tier's averages are consulted.
type Level string

const (
	LevelProfessional Level = "professional"
	LevelCollegiate   Level = "collegiate"
	LevelAmateur      Level = "amateur"
)

// ParseLevel maps a string to a Level, defaulting to amateur.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelProfessional:
		return LevelProfessional
	case LevelCollegiate:
		return LevelCollegiate
	default:
		return LevelAmateur
	}
}

// metricDef defines one benchmarked metric: its canonical key, the alias
// fragments used to match observed column names, per-level averages, and
// whether larger observed values are better.
type metricDef struct {
	key            string
	aliases        []string
	averages       map[Level]float64
	higherIsBetter bool
}

// Comparator matches observed metrics to a sport's benchmark catalog.
type Comparator struct {
	catalogs map[string][]metricDef
}

// NewComparator creates a comparator backed by the built-in catalogs.
func NewComparator() *Comparator {
	return &Comparator{catalogs: catalogs}
}

// KnownDomain reports whether a benchmark catalog exists for the domain.
func (c *Comparator) KnownDomain(sport string) bool {
	_, ok := c.catalogs[strings.ToLower(strings.TrimSpace(sport))]
	return ok
}

// Compare scores each observed metric average against the catalog for
// the given sport and level. Metrics with no catalog match are omitted.
func (c *Comparator) Compare(sport string, level Level, observed map[string]float64) []domain.BenchmarkComparison {
	defs, ok := c.catalogs[strings.ToLower(strings.TrimSpace(sport))]
	if !ok {
		return nil
	}

	var comparisons []domain.BenchmarkComparison
	for _, def := range defs {
		name, value, found := matchObserved(def, observed)
		if !found {
			continue
		}
		avg, ok := def.averages[level]
		if !ok || avg == 0 {
			continue
		}

		pct := percentile(value, avg, def.higherIsBetter)
		comparisons = append(comparisons, domain.BenchmarkComparison{
			Metric:         name,
			Observed:       value,
			DomainAverage:  avg,
			Percentile:     pct,
			Assessment:     assess(pct),
			HigherIsBetter: def.higherIsBetter,
		})
	}
	return comparisons
}

// matchObserved finds the first observed metric whose name matches the
// definition exactly or contains one of its aliases. Observed names are
// scanned in sorted order so matching is deterministic.
func matchObserved(def metricDef, observed map[string]float64) (string, float64, bool) {
	names := sortedKeys(observed)

	for _, name := range names {
		if strings.EqualFold(name, def.key) {
			return name, observed[name], true
		}
	}
	for _, name := range names {
		lower := strings.ToLower(name)
		for _, alias := range def.aliases {
			if strings.Contains(lower, alias) {
				return name, observed[name], true
			}
		}
	}
	return "", 0, false
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// percentile estimates a population rank via a z-score approximation
// that assumes a standard deviation of 15% of the mean. This is a
// heuristic stand-in until real variance data exists.
func percentile(observed, avg float64, higherIsBetter bool) int {
	z := (observed - avg) / (avg * 0.15)
	pct := int(math.Round(50 + 15*z))
	if pct < 1 {
		pct = 1
	}
	if pct > 99 {
		pct = 99
	}
	if !higherIsBetter {
		pct = 100 - pct
	}
	return pct
}

func assess(pct int) domain.Assessment {
	switch {
	case pct >= 90:
		return domain.AssessmentElite
	case pct >= 70:
		return domain.AssessmentAboveAverage
	case pct >= 40:
		return domain.AssessmentAverage
	case pct >= 20:
		return domain.AssessmentBelowAverage
	default:
		return domain.AssessmentNeedsWork
	}
}
