package validation

import (
	"fmt"
	"strings"
)

// Allowed SQL commands for read-only operations
var allowedCommands = map[string]bool{
	"SELECT": true,
	"WITH":   true, // CTE (Common Table Expression) - read-only
}

// Forbidden SQL commands that modify data or schema
var forbiddenCommands = map[string]bool{
	"DELETE":   true,
	"DROP":     true,
	"TRUNCATE": true,
	"INSERT":   true,
	"UPDATE":   true,
	"ALTER":    true,
	"CREATE":   true,
	"GRANT":    true,
	"REVOKE":   true,
	"EXECUTE":  true,
	"EXEC":     true,
	"CALL":     true,
	"MERGE":    true,
	"COPY":     true,
}

// ValidateQuery checks that query is a single read-only statement.
// Comments, string literals and quoted identifiers are read the way
// PostgreSQL reads them, so their content never counts as a command.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query cannot be empty")
	}

	tokens, err := tokenize(query)
	if err != nil {
		return err
	}

	statements := splitStatements(tokens)
	switch len(statements) {
	case 0:
		return fmt.Errorf("query cannot be empty")
	case 1:
	default:
		return fmt.Errorf("only a single SQL statement is allowed")
	}
	stmt := statements[0]

	first := firstCommand(stmt)
	if first == "" {
		return fmt.Errorf("unable to identify SQL command (security: unknown command)")
	}
	if !allowedCommands[first] {
		if forbiddenCommands[first] {
			return fmt.Errorf("forbidden SQL command detected: %s (read-only mode)", first)
		}
		return fmt.Errorf("unsupported SQL command: %s (only SELECT and WITH are allowed)", first)
	}

	// A write can hide in a CTE or subquery behind a leading SELECT.
	for _, tok := range stmt {
		if tok.kind != tokenWord {
			continue
		}
		if forbiddenCommands[tok.text] {
			return fmt.Errorf("forbidden SQL command detected: %s (security: command found in query)", tok.text)
		}
		// SELECT ... INTO creates a table.
		if tok.text == "INTO" {
			return fmt.Errorf("forbidden SQL clause detected: INTO (read-only mode)")
		}
	}
	return nil
}

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenQuoted
	tokenSemicolon
	tokenSymbol
)

// token is a lexical unit. Word text is upper-cased; quoted tokens carry no
// text since their content is never inspected.
type token struct {
	kind tokenKind
	text string
}

// tokenize splits query into words, quoted literals, semicolons and symbols,
// dropping whitespace and comments (-- and nested /* */). '...' strings have
// no backslash escapes, E'...' strings do, and $tag$...$tag$ bodies are
// literals. # is an operator, not a comment.
func tokenize(query string) ([]token, error) {
	var tokens []token
	n := len(query)

	for i := 0; i < n; {
		c := query[i]
		switch {
		case isSpace(c):
			i++

		case c == '-' && i+1 < n && query[i+1] == '-':
			for i < n && query[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && query[i+1] == '*':
			end, err := skipBlockComment(query, i)
			if err != nil {
				return nil, err
			}
			i = end

		case c == '`':
			return nil, fmt.Errorf("backtick quoting is not supported by PostgreSQL (use double quotes)")

		case c == '\'' || c == '"':
			end, err := skipQuoted(query, i, false)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenQuoted})
			i = end

		case c == '$' && dollarTag(query, i) != "":
			tag := dollarTag(query, i)
			body := i + len(tag)
			end := strings.Index(query[body:], tag)
			if end < 0 {
				return nil, fmt.Errorf("unterminated %s quote in query", tag)
			}
			tokens = append(tokens, token{kind: tokenQuoted})
			i = body + end + len(tag)

		case c == ';':
			tokens = append(tokens, token{kind: tokenSemicolon, text: ";"})
			i++

		case isIdentStart(c) || isDigit(c):
			start := i
			for i < n && isIdentByte(query[i]) {
				i++
			}
			word := query[start:i]
			if i < n && query[i] == '\'' && strings.EqualFold(word, "E") {
				end, err := skipQuoted(query, i, true)
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, token{kind: tokenQuoted})
				i = end
				continue
			}
			tokens = append(tokens, token{kind: tokenWord, text: strings.ToUpper(word)})

		default:
			tokens = append(tokens, token{kind: tokenSymbol, text: string(c)})
			i++
		}
	}
	return tokens, nil
}

// skipQuoted returns the index just past the literal opening at start.
// A doubled quote stays inside the literal. With escapes set, a backslash
// also escapes the next byte.
func skipQuoted(query string, start int, escapes bool) (int, error) {
	q := query[start]
	for i := start + 1; i < len(query); i++ {
		switch query[i] {
		case '\\':
			if escapes {
				i++
			}
		case q:
			if i+1 < len(query) && query[i+1] == q {
				i++
				continue
			}
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unterminated %c quote in query", q)
}

// skipBlockComment returns the index just past the comment opening at start.
// Block comments nest.
func skipBlockComment(query string, start int) (int, error) {
	depth := 0
	for i := start; i+1 < len(query); {
		switch {
		case query[i] == '/' && query[i+1] == '*':
			depth++
			i += 2
		case query[i] == '*' && query[i+1] == '/':
			depth--
			i += 2
			if depth == 0 {
				return i, nil
			}
		default:
			i++
		}
	}
	return 0, fmt.Errorf("unterminated comment in query")
}

// dollarTag returns the $tag$ delimiter opening at start, or "" when start
// is a positional parameter or a lone dollar sign.
func dollarTag(query string, start int) string {
	i := start + 1
	if i < len(query) && isIdentStart(query[i]) {
		for i < len(query) && (isIdentStart(query[i]) || isDigit(query[i])) {
			i++
		}
	}
	if i < len(query) && query[i] == '$' {
		return query[start : i+1]
	}
	return ""
}

// splitStatements groups tokens by semicolon, dropping empty statements.
func splitStatements(tokens []token) [][]token {
	var statements [][]token
	start := 0
	for i := 0; i <= len(tokens); i++ {
		if i < len(tokens) && tokens[i].kind != tokenSemicolon {
			continue
		}
		if i > start {
			statements = append(statements, tokens[start:i])
		}
		start = i + 1
	}
	return statements
}

// firstCommand is the first word of stmt, skipping opening parentheses.
func firstCommand(stmt []token) string {
	for _, tok := range stmt {
		if tok.kind == tokenSymbol && tok.text == "(" {
			continue
		}
		if tok.kind == tokenWord && !('0' <= tok.text[0] && tok.text[0] <= '9') {
			return tok.text
		}
		return ""
	}
	return ""
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c >= 0x80 || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '$'
}
