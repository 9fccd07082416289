package quantityrule

import (
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// The article code is embedded as a literal; this text must stay byte-identical for the host's store.
const lookupQueryTemplate = "SELECT CDU_MinMetrosSugestaoVenda AS MinMetros FROM Artigo WHERE Artigo = '%s'"

// LookupQuery returns the query that reads the minimum-quantity rule value of article.
// Single quotes in the article code are doubled.
func LookupQuery(article string) string {
	return fmt.Sprintf(lookupQueryTemplate, strings.ReplaceAll(article, "'", "''"))
}

// ParseThreshold converts a raw rule value as returned by a ResultSet into a number.
//
// Text is parsed with InvariantNumberFormat first and with fallback second.
// Numeric values are converted directly, booleans to 1 or 0. NULLs, unsupported types, unparseable text and
// non-finite numbers yield false.
func ParseThreshold(raw any, fallback NumberFormat) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case string:
		return parseThresholdText(v, fallback)
	case []byte:
		return parseThresholdText(string(v), fallback)
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case decimal.Decimal:
		return finite(v.InexactFloat64())
	case decimal.NullDecimal:
		if !v.Valid {
			return 0, false
		}
		return finite(v.Decimal.InexactFloat64())
	case pgtype.Numeric:
		f8, err := v.Float64Value()
		if err != nil || !f8.Valid {
			return 0, false
		}
		return finite(f8.Float64)
	case sql.NullFloat64:
		if !v.Valid {
			return 0, false
		}
		return finite(v.Float64)
	case sql.NullString:
		if !v.Valid {
			return 0, false
		}
		return parseThresholdText(v.String, fallback)
	case fmt.Stringer:
		return parseThresholdText(v.String(), fallback)
	default:
		return 0, false
	}
}

func parseThresholdText(text string, fallback NumberFormat) (float64, bool) {
	if value, ok := InvariantNumberFormat.Parse(text); ok {
		return value, true
	}

	if fallback.IsZero() || fallback == InvariantNumberFormat {
		return 0, false
	}

	return fallback.Parse(text)
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}
