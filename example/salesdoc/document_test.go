package salesdoc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/minquantity-rule/example/salesdoc"
)

func Test_Document_EditableLine_ShouldReturnLine_ForValidIndex(t *testing.T) {
	// arrange
	document := salesdoc.NewDocument(salesdoc.NewLine("A100", 1))
	index := document.AddLine(salesdoc.NewLine("B200", 3))

	// act
	line, err := document.EditableLine(index)

	// assert
	require.NoError(t, err)
	quantity, readErr := line.Quantity()
	assert.NoError(t, readErr)
	assert.Equal(t, 3.0, quantity)
	assert.Equal(t, 2, document.Len())
}

func Test_Document_EditableLine_ShouldFail_ForIndexOutOfRange(t *testing.T) {
	document := salesdoc.NewDocument(salesdoc.NewLine("A100", 1))

	for _, index := range []int{-1, 1, 42} {
		_, err := document.EditableLine(index)

		assert.ErrorIs(t, err, salesdoc.ErrLineIndexOutOfRange)
	}
}

func Test_Line_SetQuantity_ShouldFail_WhenLocked(t *testing.T) {
	// arrange
	line := salesdoc.NewLockedLine("A100", 4)

	// act
	err := line.SetQuantity(10)

	// assert
	assert.ErrorIs(t, err, salesdoc.ErrLineLocked)
	quantity, _ := line.Quantity()
	assert.Equal(t, 4.0, quantity)
}

func Test_Editor_SalesDocument_ShouldBeNil_WhenNothingIsOpen(t *testing.T) {
	editor := salesdoc.NewEditor(nil)

	assert.Nil(t, editor.SalesDocument())

	editor.Open(salesdoc.NewDocument())
	assert.NotNil(t, editor.SalesDocument())
}
