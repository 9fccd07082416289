package catalogengine

import (
	"fmt"
	"strings"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

// resultSet holds the first row of a catalog query, keyed by lower-cased column name.
type resultSet struct {
	values map[string]any
}

func newEmptyResultSet() resultSet {
	return resultSet{}
}

func newResultSet(columns []string, values []any) resultSet {
	row := make(map[string]any, len(columns))
	for i, column := range columns {
		row[strings.ToLower(column)] = normalizeValue(values[i])
	}

	return resultSet{values: row}
}

// IsEmpty implements quantityrule.ResultSet.
func (r resultSet) IsEmpty() bool {
	return r.values == nil
}

// Value implements quantityrule.ResultSet.
func (r resultSet) Value(column string) (any, error) {
	value, ok := r.values[strings.ToLower(column)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", quantityrule.ErrUnknownColumn, column)
	}

	return value, nil
}

// normalizeValue copies driver byte slices into strings; text columns arrive as []byte from lib/pq.
func normalizeValue(value any) any {
	if b, ok := value.([]byte); ok {
		return string(b)
	}

	return value
}

var _ quantityrule.ResultSet = resultSet{}
