package formatters

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fbz-tec/codexport/core/recordset"
)

func TestEscapeSQLLiteral(t *testing.T) {
	tests := []struct {
		name  string
		value recordset.Value
		want  string
	}{
		{"null", recordset.NullValue(), "NULL"},
		{"integer", recordset.IntValue(42), "42"},
		{"negative integer", recordset.IntValue(-7), "-7"},
		{"float", recordset.FloatValue(3.25), "3.25"},
		{"plain string", recordset.StringValue("hello"), "'hello'"},
		{"single quote", recordset.StringValue("O'Brien"), "'O''Brien'"},
		{"double quotes", recordset.StringValue(`say "Q"`), `'say \"Q\"'`},
		{"backslash", recordset.StringValue(`C:\path`), `'C:\\path'`},
		{"mixed", recordset.StringValue(`O'Brien "Q" C:\path`), `'O''Brien \"Q\" C:\\path'`},
		{"numeric text stays quoted", recordset.StringValue("123"), "'123'"},
		{"string NULL is quoted", recordset.StringValue("NULL"), "'NULL'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeSQLLiteral(tt.value); got != tt.want {
				t.Errorf("EscapeSQLLiteral() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEscapeTextField(t *testing.T) {
	tests := []struct {
		name  string
		value recordset.Value
		want  string
	}{
		{"null", recordset.NullValue(), ""},
		{"integer", recordset.IntValue(5), "5"},
		{"plain", recordset.StringValue("abc"), "abc"},
		{"newline", recordset.StringValue("line1\nline2"), "line1 line2"},
		{"carriage return", recordset.StringValue("a\r\nb"), "a  b"},
		{"comma", recordset.StringValue("a,b"), `"a,b"`},
		{"comma and newline", recordset.StringValue("a,\nb"), `"a, b"`},
		// Embedded quotes are not escaped.
		{"quote inside comma field", recordset.StringValue(`x "y", z`), `"x "y", z"`},
		{"quote without comma", recordset.StringValue(`x "y"`), `x "y"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeTextField(tt.value); got != tt.want {
				t.Errorf("EscapeTextField() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"users", "`users`"},
		{"price.usd", "`price.usd`"},
		{"odd`name", "`odd``name`"},
		{"user name", "`user name`"},
	}
	for _, tt := range tests {
		if got := QuoteIdent(tt.in); got != tt.want {
			t.Errorf("QuoteIdent(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestQuoteTableName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"users", "`users`"},
		{"shop.users", "`shop`.`users`"},
		{"shop.odd`name", "`shop`.`odd``name`"},
	}
	for _, tt := range tests {
		if got := QuoteTableName(tt.in); got != tt.want {
			t.Errorf("QuoteTableName(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		maxLen int
		want   string
	}{
		{name: "clean", raw: "invoice-001", want: "invoice-001"},
		{name: "slashes", raw: "a/b\\c", want: "a_b_c"},
		{name: "reserved characters", raw: `<a>:"b"|c?*`, want: "_a___b__c__"},
		{name: "control characters", raw: "a\tb\nc\rd", want: "a b c d"},
		{name: "surrounding dots and spaces", raw: " ..name.. ", want: "name"},
		{name: "only dots", raw: "...", want: "fallback"},
		{name: "empty", raw: "", want: "fallback"},
		{name: "truncated", raw: strings.Repeat("x", 250), want: strings.Repeat("x", 200)},
		{name: "custom length", raw: "abcdef", maxLen: 3, want: "abc"},
		{name: "truncation exposes trailing dot", raw: "ab.cd", maxLen: 3, want: "ab"},
		{name: "multibyte", raw: "mã số/01", want: "mã số_01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.raw, tt.maxLen, "fallback")
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if again := SanitizeFilename(got, tt.maxLen, "fallback"); again != got {
				t.Errorf("SanitizeFilename is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestSanitizeFilenameKeepsLength(t *testing.T) {
	raw := `dir/sub\file name`
	got := SanitizeFilename(raw, DefaultMaxFilenameLength, "x")
	if utf8.RuneCountInString(got) != utf8.RuneCountInString(raw) {
		t.Errorf("length changed: %q -> %q", raw, got)
	}
	if strings.ContainsAny(got, `/\`) {
		t.Errorf("separators survived: %q", got)
	}
}
