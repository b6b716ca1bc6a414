package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxIdentifierLength is the longest MySQL identifier part.
const MaxIdentifierLength = 64

// ValidateIdentifier checks a table name used in generated SQL.
// Dotted names are checked part by part (schema.table).
func ValidateIdentifier(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	for _, part := range strings.Split(name, ".") {
		if err := checkPart(name, part); err != nil {
			return err
		}
	}
	return nil
}

// ValidateColumnName checks a column name used in generated SQL. A column
// is a single identifier, so dots belong to the name.
func ValidateColumnName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("column name cannot be empty")
	}
	return checkPart(name, name)
}

func checkPart(name, part string) error {
	if strings.TrimSpace(part) == "" {
		return fmt.Errorf("identifier %q has an empty part", name)
	}
	if strings.ContainsRune(part, 0) {
		return fmt.Errorf("identifier %q contains a NUL byte", name)
	}
	if n := utf8.RuneCountInString(part); n > MaxIdentifierLength {
		return fmt.Errorf("identifier part %q is %d characters long (max %d)", part, n, MaxIdentifierLength)
	}
	if strings.HasSuffix(part, " ") {
		return fmt.Errorf("identifier part %q cannot end with a space", part)
	}
	return nil
}
