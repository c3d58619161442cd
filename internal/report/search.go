package report

import (
	"strings"

	"kassa/internal/core"
)

// Tokenize splits a search query on whitespace and lowercases the tokens.
// strings.ToLower is Unicode-aware, which matters for non-ASCII product
// names; SQLite's LIKE is not, so matching happens here instead of in SQL.
func Tokenize(query string) []string {
	fields := strings.Fields(query)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}

// matches reports whether name contains every token, case-insensitively,
// in any order.
func matches(name string, tokens []string) bool {
	lowered := strings.ToLower(name)
	for _, tok := range tokens {
		if !strings.Contains(lowered, tok) {
			return false
		}
	}
	return true
}

// FilterSales keeps the sales whose name matches every token of query.
// An empty query matches everything.
func FilterSales(sales []core.Sale, query string) []core.Sale {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return sales
	}
	var out []core.Sale
	for _, s := range sales {
		if matches(s.Name, tokens) {
			out = append(out, s)
		}
	}
	return out
}
