// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"strings"
)

// TokenKind classifies a query token.
type TokenKind int

const (
	TokTerm TokenKind = iota
	TokAnd
	TokOr
	TokNot
	TokOpen
	TokClose
)

// Token is one element of a bracketed boolean query such as
// "[single cell] AND ([RNA] OR [ATAC])".
type Token struct {
	Kind TokenKind
	Text string
}

// Tokenize splits a query into terms, operators, and parentheses. Terms are
// written in square brackets; runs of bare words that are not operators are
// also accepted as a single term.
func Tokenize(query string) ([]Token, error) {
	var toks []Token
	var bare []string
	flush := func() {
		if len(bare) > 0 {
			toks = append(toks, Token{Kind: TokTerm, Text: strings.Join(bare, " ")})
			bare = nil
		}
	}

	rs := []rune(query)
	for i := 0; i < len(rs); {
		c := rs[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '[':
			end := indexRune(rs, ']', i+1)
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated term in query %q", ErrConfig, query)
			}
			flush()
			term := strings.TrimSpace(strings.Trim(string(rs[i+1:end]), `"`))
			if term != "" {
				toks = append(toks, Token{Kind: TokTerm, Text: term})
			}
			i = end + 1
		case c == '(':
			flush()
			toks = append(toks, Token{Kind: TokOpen, Text: "("})
			i++
		case c == ')':
			flush()
			toks = append(toks, Token{Kind: TokClose, Text: ")"})
			i++
		default:
			j := i
			for j < len(rs) && !strings.ContainsRune(" \t\n\r[]()", rs[j]) {
				j++
			}
			word := string(rs[i:j])
			switch strings.ToUpper(word) {
			case "AND":
				flush()
				toks = append(toks, Token{Kind: TokAnd, Text: "AND"})
			case "OR":
				flush()
				toks = append(toks, Token{Kind: TokOr, Text: "OR"})
			case "NOT":
				flush()
				toks = append(toks, Token{Kind: TokNot, Text: "NOT"})
			default:
				bare = append(bare, strings.Trim(word, `"`))
			}
			i = j
		}
	}
	flush()

	depth := 0
	for _, t := range toks {
		switch t.Kind {
		case TokOpen:
			depth++
		case TokClose:
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced parentheses in query %q", ErrConfig, query)
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced parentheses in query %q", ErrConfig, query)
	}
	return toks, nil
}

// ParseTerms returns the search terms of a query in order.
func ParseTerms(query string) ([]string, error) {
	toks, err := Tokenize(query)
	if err != nil {
		return nil, err
	}
	var terms []string
	for _, t := range toks {
		if t.Kind == TokTerm {
			terms = append(terms, t.Text)
		}
	}
	return terms, nil
}

// Dialect renders a tokenized query for one database API.
type Dialect struct {
	Term   func(string) string
	And    string
	Or     string
	Not    string
	AndNot string // used for "AND NOT" when the API has a single operator for it
}

// PubMedDialect restricts terms to title and abstract.
var PubMedDialect = Dialect{
	Term: func(s string) string { return fmt.Sprintf("%q[Title/Abstract]", s) },
	And:  "AND", Or: "OR", Not: "NOT",
}

// ArxivDialect searches all fields with phrase terms.
var ArxivDialect = Dialect{
	Term: func(s string) string { return fmt.Sprintf("all:%q", s) },
	And:  "AND", Or: "OR", Not: "ANDNOT", AndNot: "ANDNOT",
}

// Translate renders toks in dialect d, joined by spaces.
func Translate(toks []Token, d Dialect) string {
	var parts []string
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.Kind {
		case TokTerm:
			parts = append(parts, d.Term(t.Text))
		case TokAnd:
			if d.AndNot != "" && i+1 < len(toks) && toks[i+1].Kind == TokNot {
				parts = append(parts, d.AndNot)
				i++
				continue
			}
			parts = append(parts, d.And)
		case TokOr:
			parts = append(parts, d.Or)
		case TokNot:
			parts = append(parts, d.Not)
		case TokOpen, TokClose:
			parts = append(parts, t.Text)
		}
	}
	return strings.Join(parts, " ")
}

// substringTerms flattens a query into lowercase terms for client-side
// filtering: brackets, parentheses, and quotes are stripped, then the text is split on
// " OR " and " AND ". Any term found in a paper selects it.
func substringTerms(query string) []string {
	clean := strings.NewReplacer("[", "", "]", "", `"`, "", "(", "", ")", "").Replace(query)
	var terms []string
	for _, part := range strings.Split(clean, " OR ") {
		for _, sub := range strings.Split(part, " AND ") {
			term := strings.ToLower(strings.TrimSpace(sub))
			if term == "" || term == "or" || term == "and" {
				continue
			}
			terms = append(terms, term)
		}
	}
	return terms
}

func indexRune(rs []rune, r rune, from int) int {
	for i := from; i < len(rs); i++ {
		if rs[i] == r {
			return i
		}
	}
	return -1
}
