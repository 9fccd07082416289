package quantityrule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// QueryCapability runs a raw query against the host's company database.
type QueryCapability interface {
	Query(ctx context.Context, query string) (ResultSet, error)
}

// ResultSet is the host's view on the current row of a query result.
type ResultSet interface {
	IsEmpty() bool
	Value(column string) (any, error)
}

// Editor is the sales-document editor the handler is attached to.
type Editor interface {
	// SalesDocument returns the document currently being edited or nil.
	SalesDocument() Document
}

// Document is a sales document exposing its lines.
type Document interface {
	// Lines returns the document's line collection or nil.
	Lines() LineCollection
}

// LineCollection is the ordered, zero-based collection of a document's lines.
type LineCollection interface {
	// EditableLine returns the line at index in an editable state.
	// Implementations may return an error, a nil Line, or panic for indexes they can't serve.
	EditableLine(index int) (Line, error)
}

// Line is one editable sales-document line.
type Line interface {
	Quantity() (float64, error)
	SetQuantity(quantity float64) error
}

// EventMetadata carries host-supplied context of an editor event.
type EventMetadata struct {
	CorrelationID string
	Attributes    map[string]string
}

// ArticleIdentifiedEvent is raised by the host once the article of a line has been identified.
type ArticleIdentifiedEvent struct {
	Article   string
	LineIndex int
	// Cancel is the host's cancellation flag. The rule never sets it.
	Cancel   *bool
	Metadata EventMetadata
}

func (m EventMetadata) withCorrelationID() EventMetadata {
	if m.CorrelationID == "" {
		m.CorrelationID = uuid.NewString()
	}

	return m
}

// guardHostCall runs fn and turns a panic inside the host into an error.
func guardHostCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(ErrHostCallPanicked, fmt.Errorf("%v", r))
		}
	}()

	return fn()
}
