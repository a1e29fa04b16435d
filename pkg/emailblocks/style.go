package emailblocks

import "strings"

// DefaultFontFamily is used when a document does not name a font
const DefaultFontFamily = "Arial"

var fontStacks = map[string]string{
	"Arial":           "Arial, Helvetica, sans-serif",
	"Helvetica":       "Helvetica, Arial, sans-serif",
	"Georgia":         "Georgia, 'Times New Roman', Times, serif",
	"Times New Roman": "'Times New Roman', Times, Georgia, serif",
	"Verdana":         "Verdana, Geneva, Tahoma, sans-serif",
	"Trebuchet MS":    "'Trebuchet MS', 'Lucida Grande', 'Lucida Sans Unicode', sans-serif",
	"Courier New":     "'Courier New', Courier, 'Lucida Console', monospace",
}

// FontStack maps a font family name to an email-safe fallback stack.
// Unknown families resolve to the Arial stack.
func FontStack(family string) string {
	if stack, ok := fontStacks[family]; ok {
		return stack
	}
	return fontStacks[DefaultFontFamily]
}

// FontFamilies returns the supported family names
func FontFamilies() []string {
	return []string{"Arial", "Helvetica", "Georgia", "Times New Roman", "Verdana", "Trebuchet MS", "Courier New"}
}

// EscapeHTML escapes a value the compiler places into markup.
// The ampersand must be replaced first.
func EscapeHTML(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	text = strings.ReplaceAll(text, "\"", "&quot;")
	return text
}
