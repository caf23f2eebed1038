package ics

import "strings"

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
)

// escapeText applies RFC 5545 TEXT escaping. Only used when the document
// was created with Options.EscapeText.
func escapeText(text string) string {
	return textEscaper.Replace(text)
}
