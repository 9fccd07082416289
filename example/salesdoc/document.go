// Package salesdoc provides an in-memory sales document that satisfies the editor capabilities
// of the quantityrule package. It backs the CLI's dry runs and the acceptance tests.
package salesdoc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

var ErrLineIndexOutOfRange = errors.New("line index out of range")
var ErrLineLocked = errors.New("line is locked for editing")

// Editor holds the document currently being edited.
type Editor struct {
	mu       sync.RWMutex
	document *Document
}

// NewEditor creates an Editor editing document. A nil document means nothing is open.
func NewEditor(document *Document) *Editor {
	return &Editor{document: document}
}

// SalesDocument implements quantityrule.Editor.
func (e *Editor) SalesDocument() quantityrule.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.document == nil {
		return nil
	}

	return e.document
}

// Open replaces the edited document.
func (e *Editor) Open(document *Document) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.document = document
}

// Document is an ordered list of sales lines.
type Document struct {
	mu    sync.RWMutex
	lines []*Line
}

// NewDocument creates a Document with the given lines.
func NewDocument(lines ...*Line) *Document {
	return &Document{lines: lines}
}

// Lines implements quantityrule.Document.
func (d *Document) Lines() quantityrule.LineCollection {
	return d
}

// AddLine appends a line and returns its zero-based index.
func (d *Document) AddLine(line *Line) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lines = append(d.lines, line)

	return len(d.lines) - 1
}

// Len returns the number of lines.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.lines)
}

// EditableLine implements quantityrule.LineCollection.
func (d *Document) EditableLine(index int) (quantityrule.Line, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if index < 0 || index >= len(d.lines) {
		return nil, fmt.Errorf("%w: %d of %d", ErrLineIndexOutOfRange, index, len(d.lines))
	}

	return d.lines[index], nil
}

// Line is one sales line with an article and a quantity.
type Line struct {
	mu       sync.RWMutex
	article  string
	quantity float64
	locked   bool
}

// NewLine creates an editable line.
func NewLine(article string, quantity float64) *Line {
	return &Line{article: article, quantity: quantity}
}

// NewLockedLine creates a line whose quantity can't be changed, like a line copied from a
// converted document.
func NewLockedLine(article string, quantity float64) *Line {
	return &Line{article: article, quantity: quantity, locked: true}
}

// Article returns the line's article code.
func (l *Line) Article() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.article
}

// Quantity implements quantityrule.Line.
func (l *Line) Quantity() (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.quantity, nil
}

// SetQuantity implements quantityrule.Line.
func (l *Line) SetQuantity(quantity float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locked {
		return ErrLineLocked
	}

	l.quantity = quantity

	return nil
}

var _ quantityrule.Editor = (*Editor)(nil)
var _ quantityrule.Document = (*Document)(nil)
var _ quantityrule.LineCollection = (*Document)(nil)
var _ quantityrule.Line = (*Line)(nil)
