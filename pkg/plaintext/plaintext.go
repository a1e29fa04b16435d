package plaintext

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	spaceRuns   = regexp.MustCompile(`[ \t\f\r]+`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
	invisibleCh = strings.NewReplacer("\u200c", "", "\u200d", "", "\u200a", "", "\u200b", "", "\u00a0", " ", "\u00ad", "")
)

// FromHTML renders the text/plain alternative of a compiled email.
// Hidden preheaders, head content and conditional comments are skipped;
// links keep their target as "label (url)".
func FromHTML(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("head, style, script, title, .preheader").Remove()

	w := &textWriter{}
	w.walk(doc.Find("body").Contents())

	return normalize(w.String()), nil
}

type textWriter struct {
	strings.Builder
}

func (w *textWriter) walk(nodes *goquery.Selection) {
	nodes.Each(func(_ int, s *goquery.Selection) {
		switch name := goquery.NodeName(s); name {
		case "#text":
			w.WriteString(collapse(invisibleCh.Replace(s.Nodes[0].Data)))
		case "#comment":
			return
		case "br":
			w.WriteString("\n")
		case "a":
			w.writeLink(s)
		case "img":
			if alt := strings.TrimSpace(s.AttrOr("alt", "")); alt != "" && s.ParentsFiltered("a").Length() == 0 {
				w.WriteString("[" + alt + "]")
			}
		case "li":
			w.WriteString("\n- ")
			w.walk(s.Contents())
		case "td", "th":
			w.WriteString(" ")
			w.walk(s.Contents())
			w.WriteString(" ")
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "blockquote":
			w.WriteString("\n\n")
			w.walk(s.Contents())
			w.WriteString("\n\n")
		case "div", "tr", "table", "tbody":
			w.WriteString("\n")
			w.walk(s.Contents())
			w.WriteString("\n")
		default:
			w.walk(s.Contents())
		}
	})
}

func (w *textWriter) writeLink(s *goquery.Selection) {
	label := strings.TrimSpace(collapse(invisibleCh.Replace(s.Text())))
	href := strings.TrimSpace(s.AttrOr("href", ""))

	if label == "" {
		if alt := strings.TrimSpace(s.Find("img").AttrOr("alt", "")); alt != "" {
			label = alt
		} else {
			label = strings.TrimSpace(s.AttrOr("title", ""))
		}
	}

	switch {
	case href == "" || href == "#" || strings.HasPrefix(href, "#"):
		w.WriteString(label)
	case label == "" || label == href:
		w.WriteString(href)
	default:
		w.WriteString(label + " (" + href + ")")
	}
}

func collapse(s string) string {
	return spaceRuns.ReplaceAllString(strings.ReplaceAll(s, "\n", " "), " ")
}

func normalize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRuns.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
