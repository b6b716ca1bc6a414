package formatters

import (
	"strings"
	"unicode/utf8"

	"github.com/fbz-tec/codexport/core/recordset"
)

// DefaultMaxFilenameLength keeps generated names well below the 255 byte limit of common filesystems.
const DefaultMaxFilenameLength = 200

var (
	// Backslashes are doubled before quotes are touched so that the
	// backslash added in front of a double quote is never escaped again.
	sqlBackslashReplacer = strings.NewReplacer(`\`, `\\`)
	sqlQuoteReplacer     = strings.NewReplacer(`'`, `''`, `"`, `\"`)

	textLineBreakReplacer = strings.NewReplacer("\n", " ", "\r", " ")

	filenameReplacer = strings.NewReplacer(
		"\t", " ",
		"\n", " ",
		"\r", " ",
		"<", "_",
		">", "_",
		":", "_",
		`"`, "_",
		"/", "_",
		`\`, "_",
		"|", "_",
		"?", "_",
		"*", "_",
	)
)

// EscapeSQLLiteral formats a value as a MySQL literal.
// Null becomes NULL, numbers are written unquoted, strings are quoted.
func EscapeSQLLiteral(v recordset.Value) string {
	switch v.Kind() {
	case recordset.KindNull:
		return "NULL"
	case recordset.KindInt, recordset.KindFloat:
		return v.String()
	default:
		escaped := sqlQuoteReplacer.Replace(sqlBackslashReplacer.Replace(v.String()))
		return "'" + escaped + "'"
	}
}

// EscapeTextField formats a value as one comma separated field.
// Line breaks are flattened to spaces and a field containing a comma is
// wrapped in double quotes. Double quotes already present in the value are
// left as they are, so such fields do not round-trip through a strict CSV reader.
func EscapeTextField(v recordset.Value) string {
	s := textLineBreakReplacer.Replace(v.String())
	if strings.Contains(s, ",") {
		return `"` + s + `"`
	}
	return s
}

// QuoteIdent quotes a single MySQL identifier with backticks. Dots are part
// of the name.
func QuoteIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// QuoteTableName quotes a table name part by part (schema.table).
func QuoteTableName(s string) string {
	parts := strings.Split(s, ".")
	for i, part := range parts {
		parts[i] = QuoteIdent(part)
	}
	return strings.Join(parts, ".")
}

// SanitizeFilename turns raw into a name that is safe on Windows and POSIX filesystems.
// Control characters become spaces, reserved characters become underscores,
// surrounding dots and spaces are trimmed and the result is cut to maxLen runes.
// If nothing is left, fallback is returned. Sanitizing a sanitized name is a no-op.
func SanitizeFilename(raw string, maxLen int, fallback string) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxFilenameLength
	}

	name := strings.Trim(filenameReplacer.Replace(raw), ". ")

	if utf8.RuneCountInString(name) > maxLen {
		name = string([]rune(name)[:maxLen])
		// Truncation can expose a trailing dot or space again.
		name = strings.Trim(name, ". ")
	}

	if name == "" {
		return fallback
	}
	return name
}
