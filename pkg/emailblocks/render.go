package emailblocks

import (
	"strconv"
	"strings"
)

const (
	DefaultContentWidth           = 600
	DefaultBackgroundColor        = "#f4f4f4"
	DefaultContentBackgroundColor = "#ffffff"

	// mobileBreakpoint is the max-width of the single media query
	mobileBreakpoint = 620
)

const (
	// preheaderStyle hides the span everywhere while inbox previews still read it
	preheaderStyle = "display:none;font-size:0;line-height:0;max-height:0;max-width:0;opacity:0;overflow:hidden;mso-hide:all;"

	// preheaderTrailer ends the preview so body text does not follow it
	preheaderTrailer = "&zwj;&nbsp;"
)

// Render compiles a document into a self-contained HTML email. It never
// fails: missing or malformed settings fall back to their defaults and
// blocks of unknown kinds are left out.
func Render(doc Document) string {
	ctx := resolveSettings(doc.Settings)

	rows := make([]string, 0, len(doc.Blocks))
	for _, block := range doc.Blocks {
		if fragment := renderBlock(block, ctx); fragment != "" {
			rows = append(rows, fragment)
		}
	}

	width := strconv.Itoa(ctx.contentWidth)
	bg := EscapeHTML(ctx.background)
	contentBg := EscapeHTML(ctx.contentBg)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(`<html lang="en" xmlns="http://www.w3.org/1999/xhtml" xmlns:v="urn:schemas-microsoft-com:vml" xmlns:o="urn:schemas-microsoft-com:office:office">` + "\n")
	b.WriteString(renderHead(doc.Settings.Title, ctx))
	b.WriteString(`<body style="margin:0;padding:0;width:100%;background-color:` + bg + `;">` + "\n")

	if doc.Settings.Preheader != "" {
		b.WriteString(`<span class="preheader" style="` + preheaderStyle + `">` +
			EscapeHTML(doc.Settings.Preheader) + preheaderTrailer + "</span>\n")
	}

	b.WriteString(`<!--[if mso]>` + presentationTable + ` width="100%" bgcolor="` + bg + `"><tr><td align="center"><![endif]-->` + "\n")
	b.WriteString(presentationTable + ` width="100%" bgcolor="` + bg + `" style="background-color:` + bg + `;">` + "\n")
	b.WriteString(`<tr>` + "\n" + `<td align="center" style="padding:24px 0;">` + "\n")
	b.WriteString(presentationTable + ` width="` + width + `" bgcolor="` + contentBg + `" class="email-container email-content" style="width:` +
		width + `px;max-width:` + width + `px;margin:0 auto;background-color:` + contentBg + `;">` + "\n")
	b.WriteString("<tbody>\n")
	if len(rows) > 0 {
		b.WriteString(strings.Join(rows, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("</tbody>\n</table>\n")
	b.WriteString("</td>\n</tr>\n</table>\n")
	b.WriteString(`<!--[if mso]></td></tr></table><![endif]-->` + "\n")
	b.WriteString("</body>\n</html>\n")

	return b.String()
}

// UnknownKinds returns the distinct kinds in blocks that Render drops, in
// order of first appearance.
func UnknownKinds(blocks []Block) []BlockKind {
	var unknown []BlockKind
	seen := make(map[BlockKind]bool)
	for _, block := range blocks {
		if block.Kind.IsKnown() || seen[block.Kind] {
			continue
		}
		seen[block.Kind] = true
		unknown = append(unknown, block.Kind)
	}
	return unknown
}

// ContentWidth coerces a raw contentWidth setting to a positive pixel width
func ContentWidth(raw interface{}) int {
	var width int
	var ok bool

	switch v := raw.(type) {
	case string:
		width, ok = parseWidth(v)
	default:
		width, ok = toInt(raw)
	}
	if !ok || width <= 0 {
		return DefaultContentWidth
	}
	return width
}

// parseWidth accepts "600" and "600px" but rejects other trailing text
func parseWidth(s string) (int, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return floatToInt(f)
	}
	return 0, false
}

func resolveSettings(s Settings) renderContext {
	family := s.FontFamily
	if family == "" {
		family = DefaultFontFamily
	}

	return renderContext{
		contentWidth: ContentWidth(s.ContentWidth),
		fontStack:    FontStack(family),
		background:   orDefault(s.BackgroundColor, DefaultBackgroundColor),
		contentBg:    orDefault(s.ContentBackgroundColor, DefaultContentBackgroundColor),
	}
}

func renderHead(title string, ctx renderContext) string {
	width := strconv.Itoa(ctx.contentWidth)

	var b strings.Builder
	b.WriteString("<head>\n")
	b.WriteString(`<meta charset="UTF-8">` + "\n")
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")
	b.WriteString(`<meta http-equiv="X-UA-Compatible" content="IE=edge">` + "\n")
	b.WriteString(`<meta name="x-apple-disable-message-reformatting">` + "\n")
	b.WriteString(`<meta name="format-detection" content="telephone=no,address=no,email=no,date=no,url=no">` + "\n")
	b.WriteString("<title>" + EscapeHTML(title) + "</title>\n")
	b.WriteString("<!--[if mso]>\n<noscript>\n<xml>\n<o:OfficeDocumentSettings>\n<o:AllowPNG/>\n<o:PixelsPerInch>96</o:PixelsPerInch>\n</o:OfficeDocumentSettings>\n</xml>\n</noscript>\n<![endif]-->\n")
	b.WriteString("<style>\n")
	b.WriteString("html, body { margin:0 !important; padding:0 !important; width:100% !important; }\n")
	b.WriteString("* { -ms-text-size-adjust:100%; -webkit-text-size-adjust:100%; }\n")
	b.WriteString("table, td { border-collapse:collapse; mso-table-lspace:0pt; mso-table-rspace:0pt; }\n")
	b.WriteString("table { border-spacing:0; table-layout:fixed; margin:0 auto; }\n")
	b.WriteString("img { border:0; outline:none; text-decoration:none; -ms-interpolation-mode:bicubic; display:block; height:auto; }\n")
	b.WriteString("a { text-decoration:none; }\n")
	b.WriteString("body, td, p, a, li { font-family:" + ctx.fontStack + "; }\n")
	b.WriteString("@media only screen and (max-width:" + strconv.Itoa(mobileBreakpoint) + "px) {\n")
	b.WriteString("  .email-container { width:100% !important; max-width:" + width + "px !important; }\n")
	b.WriteString("  .column { width:100% !important; max-width:100% !important; display:block !important; }\n")
	b.WriteString("  .mobile-padding { padding-left:16px !important; padding-right:16px !important; }\n")
	b.WriteString("  .mobile-center { text-align:center !important; }\n")
	b.WriteString("}\n")
	b.WriteString("</style>\n")
	b.WriteString("</head>\n")
	return b.String()
}
