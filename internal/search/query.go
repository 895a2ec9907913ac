// Package search builds the keyword and pagination clauses used by tip search.
package search

import (
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Mode combines token matches.
type Mode string

const (
	ModeOr  Mode = "OR"
	ModeAnd Mode = "AND"
)

// ParseMode treats anything other than "AND" (any case) as OR.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeAnd)) {
		return ModeAnd
	}
	return ModeOr
}

// Scope selects which tips a search runs over.
type Scope string

const (
	ScopePublic  Scope = "public"
	ScopeMine    Scope = "mine"
	ScopeGroup   Scope = "group"
	ScopeStorage Scope = "storage"
)

// Tokenize splits keyword on whitespace into distinct lower-cased tokens,
// keeping first-seen order.
func Tokenize(keyword string) []string {
	fields := strings.Fields(keyword)
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.ToLower(f)
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}

// EscapeLike escapes LIKE metacharacters so token matches literally under ESCAPE '\'.
func EscapeLike(token string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(token)
}

// Keyword is a parsed keyword filter.
type Keyword struct {
	Tokens []string
	Mode   Mode
}

// NewKeyword parses a raw keyword and mode string.
func NewKeyword(raw, mode string) Keyword {
	return Keyword{Tokens: Tokenize(raw), Mode: ParseMode(mode)}
}

// Empty reports whether the keyword filters nothing.
func (k Keyword) Empty() bool {
	return len(k.Tokens) == 0
}

// Expression returns one sub-expression per token, each matching if any of
// columns contains the token, combined by the keyword mode. Nil when empty.
func (k Keyword) Expression(columns ...string) clause.Expression {
	if k.Empty() || len(columns) == 0 {
		return nil
	}

	exprs := make([]clause.Expression, 0, len(k.Tokens))
	for _, tok := range k.Tokens {
		exprs = append(exprs, tokenMatch(tok, columns))
	}

	// gorm joins a single-element OrConditions to its siblings with OR.
	if len(exprs) == 1 {
		return exprs[0]
	}
	if k.Mode == ModeAnd {
		return clause.And(exprs...)
	}
	return clause.Or(exprs...)
}

func tokenMatch(token string, columns []string) clause.Expression {
	pattern := "%" + EscapeLike(token) + "%"

	parts := make([]string, len(columns))
	vars := make([]any, len(columns))
	for i, col := range columns {
		parts[i] = "LOWER(COALESCE(" + col + ", '')) LIKE ? ESCAPE '\\'"
		vars[i] = pattern
	}
	return clause.Expr{SQL: "(" + strings.Join(parts, " OR ") + ")", Vars: vars}
}

// Page is a zero-based pagination window.
type Page struct {
	Index int
	Size  int
}

// Paginated reports whether the window applies; otherwise all rows are returned.
func (p Page) Paginated() bool {
	return p.Index >= 0 && p.Size > 0
}

// Apply adds OFFSET/LIMIT when the window applies.
func (p Page) Apply(db *gorm.DB) *gorm.DB {
	if !p.Paginated() {
		return db
	}
	if p.Index > math.MaxInt32/p.Size {
		// Past any reachable row.
		return db.Where("1 = 0")
	}
	return db.Offset(p.Index * p.Size).Limit(p.Size)
}
