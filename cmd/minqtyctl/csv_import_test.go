package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

func Test_readImportRows_ShouldReadCommaSeparatedRows(t *testing.T) {
	// arrange
	input := "article,min_quantity\nA100,2.5\n B200 , 4\n"

	// act
	rows, err := readImportRows(strings.NewReader(input), quantityrule.DefaultFallbackNumberFormat)

	// assert
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A100", rows[0].article)
	assert.Equal(t, "2.5", rows[0].quantity.String())
	assert.Equal(t, 2, rows[0].line)
	assert.Equal(t, "B200", rows[1].article)
	assert.Equal(t, "4", rows[1].quantity.String())
}

func Test_readImportRows_ShouldReadSemicolonSeparatedRowsWithDecimalComma(t *testing.T) {
	// arrange
	input := "Article;Min_Quantity\nA100;2,5\nO'NEIL-1;1.234,5\n"

	// act
	rows, err := readImportRows(strings.NewReader(input), quantityrule.DefaultFallbackNumberFormat)

	// assert
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2.5", rows[0].quantity.String())
	assert.Equal(t, "O'NEIL-1", rows[1].article)
	assert.Equal(t, "1234.5", rows[1].quantity.String())
}

func Test_readImportRows_ShouldRejectInvalidInput(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expectedErr error
	}{
		{name: "header only", input: "article,min_quantity\n", expectedErr: errImportEmpty},
		{name: "wrong header", input: "code,qty\nA100,1\n", expectedErr: errImportHeaderMismatch},
		{name: "blank article", input: "article,min_quantity\n ,1\n", expectedErr: quantityrule.ErrEmptyArticleCode},
		{name: "zero quantity", input: "article,min_quantity\nA100,0\n", expectedErr: errInvalidQuantityArgument},
		{name: "negative quantity", input: "article,min_quantity\nA100,-2\n", expectedErr: errInvalidQuantityArgument},
		{name: "text quantity", input: "article,min_quantity\nA100,lots\n", expectedErr: errInvalidQuantityArgument},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := readImportRows(strings.NewReader(tc.input), quantityrule.DefaultFallbackNumberFormat)

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_readImportRows_ShouldRejectRowsWithWrongColumnCount(t *testing.T) {
	// arrange
	reader := strings.NewReader("article,min_quantity\nA100\n")

	// act
	_, err := readImportRows(reader, quantityrule.DefaultFallbackNumberFormat)

	// assert
	assert.Error(t, err)
}
