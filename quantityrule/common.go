package quantityrule

import (
	"errors"
)

var ErrNilEditor = errors.New("nil editor supplied")
var ErrNilQueryCapability = errors.New("nil query capability supplied")
var ErrInvalidEpsilon = errors.New("epsilon must be a finite, non-negative number")
var ErrInvalidNumberFormat = errors.New("decimal and group separator must differ")
var ErrUnknownLocale = errors.New("locale is not a valid BCP 47 language tag")
var ErrHostCallPanicked = errors.New("host call panicked")

var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrUnsupportedDialect = errors.New("unsupported sql dialect")
var ErrQueryingCatalogFailed = errors.New("querying catalog failed")
var ErrScanningDBRowFailed = errors.New("scanning db row failed")
var ErrBuildingQueryFailed = errors.New("building query failed")
var ErrWritingCatalogFailed = errors.New("writing catalog failed")
var ErrEmptyArticleCode = errors.New("article code must not be empty")
var ErrNonPositiveMinimumQuantity = errors.New("minimum quantity must be strictly positive")
var ErrArticleNotFound = errors.New("article not found in catalog")
var ErrUnknownColumn = errors.New("column not in result set")
var ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
var ErrNegativeBaseDelay = errors.New("base delay must not be negative")

// ColumnMinimumQuantity is the column alias under which the lookup query returns the rule value.
const ColumnMinimumQuantity = "MinMetros"
