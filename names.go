package dbctx

import (
	"strings"
	"unicode"
)

// Database names.
const (
	DatabasePostgres = "postgres"
)

// Language names.
const (
	LangGo = "go"
)

// DatabaseInfo describes a database the CLI knows how to drive.
type DatabaseInfo struct {
	// Title is the human-readable driver name.
	Title string
	// Language is the default code generation target.
	Language string
}

// KnownDatabases maps database names to their info.
var KnownDatabases = map[string]DatabaseInfo{
	DatabasePostgres: {Title: "PostgreSQL", Language: LangGo},
}

// LanguageForDatabase returns the default language for a database.
func LanguageForDatabase(dbName string) string {
	if info, ok := KnownDatabases[dbName]; ok {
		return info.Language
	}

	return ""
}

// commonInitialisms are rendered fully upper-cased inside identifiers.
var commonInitialisms = map[string]bool{
	"ACL": true, "API": true, "CPU": true, "CSS": true, "DNS": true, "HTML": true,
	"HTTP": true, "HTTPS": true, "ID": true, "IP": true, "JSON": true, "SQL": true,
	"SSH": true, "TCP": true, "TLS": true, "TTL": true, "UI": true, "URI": true,
	"URL": true, "UTF8": true, "UUID": true, "XML": true,
}

// Identifier joins parts into an exported Go identifier.
//
// Each part is split on anything that is not a letter or digit and on
// lower-to-upper case transitions, then title-cased:
//
//	Identifier("order_items")          -> "OrderItems"
//	Identifier("sales", "customer_id") -> "SalesCustomerID"
//	Identifier("2fa_codes")            -> "X2faCodes"
//	Identifier("")                     -> "X"
func Identifier(parts ...string) string {
	var b strings.Builder

	for _, part := range parts {
		for _, word := range splitWords(part) {
			upper := strings.ToUpper(word)
			if commonInitialisms[upper] {
				b.WriteString(upper)
				continue
			}

			runes := []rune(strings.ToLower(word))
			runes[0] = unicode.ToUpper(runes[0])
			b.WriteString(string(runes))
		}
	}

	out := b.String()
	if out == "" || !unicode.IsLetter([]rune(out)[0]) {
		out = "X" + out
	}

	return out
}

// LocalIdentifier is Identifier with a lower-cased first word, for parameters
// and locals. Go keywords get a trailing underscore.
//
//	LocalIdentifier("customer_id") -> "customerID"
//	LocalIdentifier("type")        -> "type_"
func LocalIdentifier(parts ...string) string {
	words := make([]string, 0, len(parts))
	for _, part := range parts {
		words = append(words, splitWords(part)...)
	}

	if len(words) == 0 {
		return "arg"
	}

	out := strings.ToLower(words[0])
	if len(words) > 1 {
		out += Identifier(words[1:]...)
	}

	if r := []rune(out)[0]; !unicode.IsLetter(r) {
		out = "arg" + out
	}

	if goKeywords[out] {
		out += "_"
	}

	return out
}

var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

func splitWords(s string) []string {
	var (
		words   []string
		current []rune
	)

	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}

		if unicode.IsUpper(r) && i > 0 && len(current) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}

		current = append(current, r)
	}

	flush()

	return words
}
