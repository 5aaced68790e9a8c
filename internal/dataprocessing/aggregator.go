package dataprocessing

import (
	"math"

	"scoutlens/pkg/contracts/domain"
)

// Aggregate computes per-column descriptive statistics over a parsed
// table in a single pass.
//
// A column is numeric when every non-null value is a number, text when
// every non-null value is text, and mixed otherwise. Numeric columns get
// min/max/sum/avg, text columns get a distinct count, mixed columns
// report only counts. For every column, count + nullCount equals the
// table's row count.
func Aggregate(table *domain.ParsedTable) map[string]domain.AggregateStat {
	stats := make(map[string]domain.AggregateStat, len(table.Headers))

	for _, header := range table.Headers {
		stats[header] = aggregateColumn(table, header)
	}

	return stats
}

func aggregateColumn(table *domain.ParsedTable, header string) domain.AggregateStat {
	var (
		count, nullCount int
		allNumeric       = true
		allText          = true
		min              = math.Inf(1)
		max              = math.Inf(-1)
		sum              float64
		distinct         map[string]struct{}
	)

	for _, row := range table.Rows {
		cell, ok := row[header]
		if !ok || cell.IsNull() {
			nullCount++
			continue
		}
		count++

		switch cell.Kind {
		case domain.CellNumber:
			allText = false
			if cell.Number < min {
				min = cell.Number
			}
			if cell.Number > max {
				max = cell.Number
			}
			sum += cell.Number
		case domain.CellText:
			allNumeric = false
			if distinct == nil {
				distinct = make(map[string]struct{})
			}
			distinct[cell.Text] = struct{}{}
		default:
			allNumeric = false
			allText = false
		}
	}

	stat := domain.AggregateStat{
		Count:     count,
		NullCount: nullCount,
	}

	switch {
	case count == 0:
		// A fully-null column has no values to classify.
		stat.Classification = domain.ClassMixed
	case allNumeric:
		stat.Classification = domain.ClassNumeric
		stat.Min = min
		stat.Max = max
		stat.Sum = sum
		stat.Avg = sum / float64(count)
	case allText:
		stat.Classification = domain.ClassText
		stat.DistinctCount = len(distinct)
	default:
		stat.Classification = domain.ClassMixed
	}

	return stat
}
