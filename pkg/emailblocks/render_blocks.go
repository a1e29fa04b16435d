package emailblocks

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// imageStyle defeats default client image chrome
const imageStyle = "display:block;border:0;outline:none;text-decoration:none;max-width:100%;height:auto;"

// presentationTable opens a layout table with all client spacing disabled
const presentationTable = `<table role="presentation" border="0" cellpadding="0" cellspacing="0"`

// renderContext carries the resolved document settings into every renderer
type renderContext struct {
	contentWidth int
	fontStack    string
	background   string
	contentBg    string
}

type socialBadge struct {
	color string
	glyph string
}

var socialBadges = map[string]socialBadge{
	"facebook":  {color: "#1877f2", glyph: "f"},
	"twitter":   {color: "#1da1f2", glyph: "t"},
	"x":         {color: "#000000", glyph: "X"},
	"instagram": {color: "#e4405f", glyph: "ig"},
	"linkedin":  {color: "#0a66c2", glyph: "in"},
	"youtube":   {color: "#ff0000", glyph: "yt"},
	"tiktok":    {color: "#010101", glyph: "tt"},
	"pinterest": {color: "#e60023", glyph: "P"},
	"github":    {color: "#181717", glyph: "gh"},
	"whatsapp":  {color: "#25d366", glyph: "wa"},
}

const unknownBadgeColor = "#6b7280"

// renderBlock dispatches a block to the renderer of its kind.
// Unknown kinds contribute nothing.
func renderBlock(block Block, ctx renderContext) string {
	p := props(block.Properties)

	switch block.Kind {
	case KindHeader:
		return renderHeader(p, ctx)
	case KindHero:
		return renderHero(p, ctx)
	case KindText:
		return renderText(p, ctx)
	case KindImage:
		return renderImage(p, ctx)
	case KindButton:
		return renderButton(p, ctx)
	case KindDivider:
		return renderDivider(p, ctx)
	case KindSpacer:
		return renderSpacer(p, ctx)
	case KindColumns:
		return renderColumns(p, ctx)
	case KindSocial:
		return renderSocial(p, ctx)
	case KindFooter:
		return renderFooter(p, ctx)
	default:
		return ""
	}
}

func renderHeader(p props, ctx renderContext) string {
	align := alignment(p.str("alignment", "center"))
	bg := p.str("backgroundColor", "#1a56db")
	textColor := p.str("textColor", "#ffffff")
	name := p.str("companyName", "")
	tagline := p.str("tagline", "")
	logo := p.str("logoUrl", "")

	var b strings.Builder
	b.WriteString(openCell(align, bg, p.str("padding", "32px 24px"), "mobile-padding", ""))

	if logo != "" {
		width := p.integer("logoWidth", 150)
		b.WriteString(`<img src="` + EscapeHTML(logo) + `" alt="` + EscapeHTML(name) + `" width="` + strconv.Itoa(width) +
			`" style="` + imageStyle + `width:` + strconv.Itoa(width) + `px;` + blockMargin(align) + `">`)
	}
	if name != "" {
		top := "0"
		if logo != "" {
			top = "16px"
		}
		b.WriteString(`<h1 style="margin:` + top + ` 0 0;font-family:` + ctx.fontStack + `;font-size:` + EscapeHTML(p.str("fontSize", "28px")) +
			`;line-height:1.25;font-weight:bold;color:` + EscapeHTML(textColor) + `;">` + EscapeHTML(name) + `</h1>`)
	}
	if tagline != "" {
		b.WriteString(`<p style="margin:8px 0 0;font-family:` + ctx.fontStack + `;font-size:15px;line-height:1.5;color:` +
			EscapeHTML(textColor) + `;">` + EscapeHTML(tagline) + `</p>`)
	}

	b.WriteString(closeCell)
	return b.String()
}

// cssURLEscaper percent-encodes what would end a quoted CSS url() early.
// Entities in the style attribute are decoded before CSS sees them.
var cssURLEscaper = strings.NewReplacer(
	"'", "%27",
	`"`, "%22",
	"(", "%28",
	")", "%29",
	`\`, "%5C",
	" ", "%20",
	"\n", "%0A",
	"\r", "%0D",
	"\t", "%09",
)

func cssURL(u string) string {
	return cssURLEscaper.Replace(u)
}

func renderHero(p props, ctx renderContext) string {
	align := alignment(p.str("alignment", "center"))
	bg := p.str("backgroundColor", "#1e3a8a")
	textColor := p.str("textColor", "#ffffff")
	image := p.str("backgroundImage", "")

	extra := ""
	if image != "" {
		extra = `background-image:url('` + EscapeHTML(cssURL(image)) + `');background-size:cover;background-position:center;background-repeat:no-repeat;`
	}

	var b strings.Builder
	b.WriteString(`<tr>` + "\n")
	b.WriteString(`<td align="` + align + `" bgcolor="` + EscapeHTML(bg) + `"`)
	if image != "" {
		b.WriteString(` background="` + EscapeHTML(image) + `"`)
	}
	b.WriteString(` class="mobile-padding" style="background-color:` + EscapeHTML(bg) + `;` + extra + `padding:` +
		EscapeHTML(p.str("padding", "56px 32px")) + `;text-align:` + align + `;">`)

	if heading := p.str("heading", ""); heading != "" {
		b.WriteString(`<h1 style="margin:0;font-family:` + ctx.fontStack + `;font-size:` + EscapeHTML(p.str("headingSize", "36px")) +
			`;line-height:1.2;font-weight:bold;color:` + EscapeHTML(textColor) + `;">` + EscapeHTML(heading) + `</h1>`)
	}
	if sub := p.str("subheading", ""); sub != "" {
		b.WriteString(`<p style="margin:16px 0 0;font-family:` + ctx.fontStack + `;font-size:` + EscapeHTML(p.str("subheadingSize", "18px")) +
			`;line-height:1.5;color:` + EscapeHTML(textColor) + `;">` + EscapeHTML(sub) + `</p>`)
	}
	if label := p.str("buttonText", ""); label != "" {
		b.WriteString(`<div style="height:24px;line-height:24px;font-size:1px;">&nbsp;</div>`)
		b.WriteString(buttonAnchor(buttonSpec{
			label:      label,
			href:       p.str("buttonUrl", "#"),
			background: p.str("buttonColor", "#ffffff"),
			color:      p.str("buttonTextColor", "#1a56db"),
			radius:     p.str("buttonRadius", "6px"),
			fontSize:   "16px",
			fontWeight: "bold",
			padding:    "14px 32px",
			align:      align,
		}, ctx))
	}

	b.WriteString(closeCell)
	return b.String()
}

func renderText(p props, ctx renderContext) string {
	align := alignment(p.str("alignment", "left"))
	bg := p.str("backgroundColor", ctx.contentBg)

	var b strings.Builder
	b.WriteString(openCell(align, bg, p.str("padding", "16px 32px"), "mobile-padding",
		`font-family:`+ctx.fontStack+`;font-size:`+EscapeHTML(p.str("fontSize", "16px"))+
			`;line-height:`+EscapeHTML(p.str("lineHeight", "1.6"))+`;color:`+EscapeHTML(p.str("color", "#333333"))+`;`))
	// author supplied markup, passed through as-is
	b.WriteString(p.str("content", ""))
	b.WriteString(closeCell)
	return b.String()
}

func renderImage(p props, ctx renderContext) string {
	align := alignment(p.str("alignment", "center"))
	bg := p.str("backgroundColor", ctx.contentBg)
	src := p.str("src", "")

	var b strings.Builder
	b.WriteString(openCell(align, bg, p.str("padding", "16px 32px"), "", ""))

	if src != "" {
		percent := p.integer("width", 100)
		if percent <= 0 || percent > 100 {
			percent = 100
		}
		pixelWidth := p.integer("pixelWidth", 520)
		if pixelWidth <= 0 || pixelWidth > ctx.contentWidth {
			pixelWidth = ctx.contentWidth
		}

		img := `<img src="` + EscapeHTML(src) + `" alt="` + EscapeHTML(p.str("alt", "")) + `" width="` + strconv.Itoa(pixelWidth) +
			`" style="` + imageStyle + `width:` + strconv.Itoa(percent) + `%;` + blockMargin(align) + `">`

		if link := p.str("linkUrl", ""); link != "" {
			img = `<a href="` + EscapeHTML(link) + `" target="_blank" style="text-decoration:none;">` + img + `</a>`
		}
		b.WriteString(img)
	}

	b.WriteString(closeCell)
	return b.String()
}

func renderButton(p props, ctx renderContext) string {
	align := alignment(p.str("alignment", "center"))
	containerBg := p.str("containerBg", ctx.contentBg)

	var b strings.Builder
	b.WriteString(openCell(align, containerBg, p.str("padding", "16px 32px"), "", ""))
	b.WriteString(buttonAnchor(buttonSpec{
		label:      p.str("text", "Click here"),
		href:       p.str("url", "#"),
		background: p.str("backgroundColor", "#1a56db"),
		color:      p.str("textColor", "#ffffff"),
		radius:     p.str("borderRadius", "6px"),
		fontSize:   p.str("fontSize", "16px"),
		fontWeight: p.str("fontWeight", "bold"),
		padding:    p.str("buttonPadding", "14px 32px"),
		fullWidth:  p.boolean("fullWidth", false),
		align:      align,
	}, ctx))
	b.WriteString(closeCell)
	return b.String()
}

func renderDivider(p props, ctx renderContext) string {
	bg := p.str("backgroundColor", ctx.contentBg)
	border := EscapeHTML(p.str("thickness", "1px")) + " " + EscapeHTML(p.str("style", "solid")) + " " + EscapeHTML(p.str("color", "#e5e7eb"))

	var b strings.Builder
	b.WriteString(openCell("center", bg, p.str("padding", "16px 32px"), "", ""))
	b.WriteString(presentationTable + ` width="100%"><tr><td style="border-top:` + border +
		`;font-size:1px;line-height:1px;mso-line-height-rule:exactly;">&nbsp;</td></tr></table>`)
	b.WriteString(closeCell)
	return b.String()
}

func renderSpacer(p props, ctx renderContext) string {
	bg := EscapeHTML(p.str("backgroundColor", ctx.contentBg))
	height, ok := leadingInt(p.str("height", "30px"))
	if !ok || height < 0 {
		height = 30
	}
	h := strconv.Itoa(height)

	return `<tr>` + "\n" + `<td height="` + h + `" bgcolor="` + bg + `" style="background-color:` + bg + `;height:` + h +
		`px;line-height:` + h + `px;font-size:1px;mso-line-height-rule:exactly;">&nbsp;</td>` + "\n" + `</tr>`
}

// ColumnWidth returns the fixed pixel width of one column
func ColumnWidth(contentWidth, count int) int {
	if count <= 0 {
		return contentWidth
	}
	return contentWidth / count
}

func renderColumns(p props, ctx renderContext) string {
	bg := p.str("backgroundColor", ctx.contentBg)
	columns := p.columns()
	if len(columns) > MaxColumns {
		columns = columns[:MaxColumns]
	}

	var b strings.Builder
	b.WriteString(openCell("center", bg, p.str("padding", "16px 22px"), "", "font-size:0;"))

	if len(columns) > 0 {
		width := strconv.Itoa(ColumnWidth(ctx.contentWidth, len(columns)))
		gap := p.integer("gap", 20)
		if gap < 0 {
			gap = 0
		}
		gapWidth := strconv.Itoa(gap)

		b.WriteString(`<!--[if mso]>` + presentationTable + ` width="` + strconv.Itoa(ctx.contentWidth) + `"><tr><![endif]-->`)
		for i, col := range columns {
			if i > 0 {
				b.WriteString(`<!--[if mso]><td width="` + gapWidth + `" style="width:` + gapWidth +
					`px;font-size:1px;line-height:1px;">&nbsp;</td><![endif]-->`)
			}
			align := alignment(orDefault(col.Alignment, "left"))
			b.WriteString(`<!--[if mso]><td width="` + width + `" valign="top" style="width:` + width + `px;"><![endif]-->`)
			b.WriteString(`<div class="column" style="display:inline-block;vertical-align:top;width:100%;max-width:` + width + `px;">`)
			b.WriteString(presentationTable + ` width="100%"><tr><td align="` + align + `" style="padding:` +
				EscapeHTML(orDefault(col.Padding, "10px")) + `;font-family:` + ctx.fontStack + `;font-size:` +
				EscapeHTML(orDefault(col.FontSize, "15px")) + `;line-height:1.5;color:` + EscapeHTML(orDefault(col.Color, "#333333")) +
				`;text-align:` + align + `;">`)
			// author supplied markup, passed through as-is
			b.WriteString(col.Content)
			b.WriteString(`</td></tr></table></div>`)
			b.WriteString(`<!--[if mso]></td><![endif]-->`)
		}
		b.WriteString(`<!--[if mso]></tr></table><![endif]-->`)
	}

	b.WriteString(closeCell)
	return b.String()
}

func renderSocial(p props, ctx renderContext) string {
	align := alignment(p.str("alignment", "center"))
	bg := p.str("backgroundColor", ctx.contentBg)
	size := p.integer("iconSize", 36)
	if size <= 0 {
		size = 36
	}
	px := strconv.Itoa(size)
	fontSize := strconv.Itoa(size * 2 / 5)

	var badges strings.Builder
	for _, network := range p.networks() {
		if network.URL == "" {
			continue
		}
		badge := badgeFor(network.Platform)
		badges.WriteString(`<td style="padding:0 4px;"><a href="` + EscapeHTML(network.URL) + `" target="_blank" title="` +
			EscapeHTML(network.Platform) + `" style="text-decoration:none;">` + presentationTable + `><tr><td width="` + px +
			`" height="` + px + `" align="center" valign="middle" bgcolor="` + badge.color + `" style="width:` + px + `px;height:` + px +
			`px;background-color:` + badge.color + `;border-radius:50%;color:#ffffff;font-family:Arial, Helvetica, sans-serif;font-size:` +
			fontSize + `px;font-weight:bold;line-height:` + px + `px;text-align:center;">` + EscapeHTML(badge.glyph) +
			`</td></tr></table></a></td>`)
	}

	var b strings.Builder
	b.WriteString(openCell(align, bg, p.str("padding", "20px 32px"), "mobile-center", ""))
	if badges.Len() > 0 {
		b.WriteString(presentationTable + ` align="` + align + `" style="` + blockMargin(align) + `"><tr>`)
		b.WriteString(badges.String())
		b.WriteString(`</tr></table>`)
	}
	b.WriteString(closeCell)
	return b.String()
}

func renderFooter(p props, ctx renderContext) string {
	align := alignment(p.str("alignment", "center"))
	bg := p.str("backgroundColor", "#f4f4f4")
	linkColor := EscapeHTML(p.str("linkColor", "#1a56db"))

	var b strings.Builder
	b.WriteString(openCell(align, bg, p.str("padding", "32px 24px"), "mobile-padding",
		`font-family:`+ctx.fontStack+`;font-size:`+EscapeHTML(p.str("fontSize", "12px"))+
			`;line-height:1.5;color:`+EscapeHTML(p.str("textColor", "#6b7280"))+`;`))

	if name := p.str("companyName", ""); name != "" {
		b.WriteString(`<p style="margin:0 0 8px;font-weight:bold;">` + EscapeHTML(name) + `</p>`)
	}
	if address := p.str("address", ""); address != "" {
		b.WriteString(`<p style="margin:0 0 8px;">` + EscapeHTML(address) + `</p>`)
	}
	if extra := p.str("extraText", ""); extra != "" {
		b.WriteString(`<p style="margin:0 0 8px;">` + EscapeHTML(extra) + `</p>`)
	}

	var links []string
	if p.boolean("showUnsubscribe", true) {
		href := p.str("unsubscribeUrl", UnsubscribePlaceholder)
		links = append(links, `<a href="`+EscapeHTML(href)+`" target="_blank" style="color:`+linkColor+`;text-decoration:underline;">Unsubscribe</a>`)
	}
	if prefs := p.str("preferencesUrl", ""); prefs != "" {
		links = append(links, `<a href="`+EscapeHTML(prefs)+`" target="_blank" style="color:`+linkColor+`;text-decoration:underline;">Manage preferences</a>`)
	}
	if len(links) > 0 {
		b.WriteString(`<p style="margin:0;">` + strings.Join(links, " &middot; ") + `</p>`)
	}

	b.WriteString(closeCell)
	return b.String()
}

// UnsubscribePlaceholder is the merge token used when a footer has no unsubscribe URL
const UnsubscribePlaceholder = "{{unsubscribe_url}}"

type buttonSpec struct {
	label      string
	href       string
	background string
	color      string
	radius     string
	fontSize   string
	fontWeight string
	padding    string
	fullWidth  bool
	align      string
}

// buttonAnchor renders a bulletproof button. Outlook ignores padding on <a>,
// so letter-spaced hair spaces inside mso conditionals stand in for it.
func buttonAnchor(btn buttonSpec, ctx renderContext) string {
	vertical, horizontal := paddingParts(btn.padding, 14, 32)
	bg := EscapeHTML(btn.background)
	radius := EscapeHTML(btn.radius)

	tableAttrs := ` align="` + btn.align + `" style="` + blockMargin(btn.align) + `"`
	anchorWidth := ""
	if btn.fullWidth {
		tableAttrs = ` width="100%" style="width:100%;"`
		anchorWidth = "display:block;"
	}

	raise := strconv.Itoa(vertical*2) + "pt"
	letterSpacing := strconv.Itoa(horizontal) + "px"

	var b strings.Builder
	b.WriteString(presentationTable + tableAttrs + `><tr><td align="center" bgcolor="` + bg + `" style="background-color:` + bg +
		`;border-radius:` + radius + `;">`)
	b.WriteString(`<a href="` + EscapeHTML(btn.href) + `" target="_blank" style="display:inline-block;` + anchorWidth +
		`background-color:` + bg + `;color:` + EscapeHTML(btn.color) + `;font-family:` + ctx.fontStack + `;font-size:` +
		EscapeHTML(btn.fontSize) + `;font-weight:` + EscapeHTML(btn.fontWeight) + `;line-height:1.2;padding:` +
		EscapeHTML(btn.padding) + `;border-radius:` + radius + `;text-align:center;text-decoration:none;mso-padding-alt:0;">`)
	b.WriteString(`<!--[if mso]><i style="letter-spacing:` + letterSpacing + `;mso-font-width:-100%;mso-text-raise:` + raise +
		`;">&#8202;</i><![endif]-->`)
	b.WriteString(`<span style="mso-text-raise:` + strconv.Itoa(vertical) + `pt;">` + EscapeHTML(btn.label) + `</span>`)
	b.WriteString(`<!--[if mso]><i style="letter-spacing:` + letterSpacing + `;mso-font-width:-100%;">&#8202;</i><![endif]-->`)
	b.WriteString(`</a></td></tr></table>`)
	return b.String()
}

const closeCell = "</td>\n</tr>"

// openCell opens the single row and cell every block renders into
func openCell(align, bg, padding, class, extraStyle string) string {
	bg = EscapeHTML(bg)
	classAttr := ""
	if class != "" {
		classAttr = ` class="` + class + `"`
	}
	return `<tr>` + "\n" + `<td align="` + align + `" bgcolor="` + bg + `"` + classAttr + ` style="background-color:` + bg +
		`;padding:` + EscapeHTML(padding) + `;` + extraStyle + `text-align:` + align + `;">`
}

// alignment normalises a user supplied alignment to left, center or right
func alignment(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "left":
		return "left"
	case "right":
		return "right"
	default:
		return "center"
	}
}

// blockMargin positions a block-level element the way text-align would
func blockMargin(align string) string {
	switch align {
	case "left":
		return "margin:0 auto 0 0;"
	case "right":
		return "margin:0 0 0 auto;"
	default:
		return "margin:0 auto;"
	}
}

// paddingParts extracts vertical and horizontal pixel values from a CSS
// padding shorthand such as "14px 32px".
func paddingParts(padding string, defaultVertical, defaultHorizontal int) (int, int) {
	fields := strings.Fields(padding)
	values := make([]int, 0, len(fields))
	for _, f := range fields {
		n, ok := leadingInt(f)
		if !ok || n < 0 {
			return defaultVertical, defaultHorizontal
		}
		values = append(values, n)
	}

	switch len(values) {
	case 1:
		return values[0], values[0]
	case 2, 3, 4:
		return values[0], values[1]
	default:
		return defaultVertical, defaultHorizontal
	}
}

func badgeFor(platform string) socialBadge {
	key := strings.ToLower(strings.TrimSpace(platform))
	if badge, ok := socialBadges[key]; ok {
		return badge
	}
	return socialBadge{color: unknownBadgeColor, glyph: initials(platform)}
}

// initials returns the uppercased first letter of an unknown platform name
func initials(platform string) string {
	platform = strings.TrimSpace(platform)
	if platform == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(platform)
	return string(unicode.ToUpper(r))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
