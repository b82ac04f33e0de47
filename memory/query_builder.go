package memory

import (
	"strings"
	"unicode"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"
)

// StatementBuilder returns a Squirrel StatementBuilder configured for SQLite.
// SQLite uses '?' as placeholders, which is Squirrel's default.
func StatementBuilder() sq.StatementBuilderType {
	return sq.StatementBuilder
}

// SelectRecordColumns returns the column list for memory_records SELECT queries.
func SelectRecordColumns() []string {
	return []string{"id", "role", "content", "created_at"}
}

// ftsMatchExpr turns free text into an FTS4 MATCH expression.
// Each letter/digit run becomes a quoted term and terms are OR-ed, so user
// punctuation can never produce a MATCH syntax error. Returns "" when the
// text has no searchable terms.
func ftsMatchExpr(text string) string {
	terms := lo.Uniq(strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}))
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + term + `"`
	}
	return strings.Join(quoted, " OR ")
}
