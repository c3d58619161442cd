package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kassa/internal/core"
)

func named(name string) core.Sale {
	s := sale(name, 1, 1000, core.PaymentCash, core.NewDay(2025, 3, 10))
	return s
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"12мм", "f/w"}, Tokenize("  12ММ   F/W "))
	assert.Empty(t, Tokenize("   "))
}

func TestFilterSalesMatchesAllTokens(t *testing.T) {
	sales := []core.Sale{
		named("Фанера 12мм F/W"),
		named("Фанера 12мм"),
		named("Plywood F/W 15mm"),
		named("f/w фанера 12ММ шлифованная"),
	}

	got := FilterSales(sales, "12мм F/W")
	require.Len(t, got, 2)
	assert.Equal(t, "Фанера 12мм F/W", got[0].Name)
	assert.Equal(t, "f/w фанера 12ММ шлифованная", got[1].Name)
}

func TestFilterSalesCaseInsensitive(t *testing.T) {
	sales := []core.Sale{named("PLYWOOD 15MM")}
	assert.Len(t, FilterSales(sales, "plywood 15mm"), 1)
}

func TestFilterSalesEmptyQueryMatchesAll(t *testing.T) {
	sales := []core.Sale{named("a"), named("b")}
	assert.Len(t, FilterSales(sales, ""), 2)
}

func TestFilterSalesNoMatch(t *testing.T) {
	sales := []core.Sale{named("Plywood")}
	assert.Empty(t, FilterSales(sales, "plywood osb"))
}
