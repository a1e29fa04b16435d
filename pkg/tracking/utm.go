package tracking

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/Notifuse/mailblocks/pkg/emailblocks"
)

// UTM holds the campaign parameters appended to outgoing links
type UTM struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Content  string `json:"utm_content,omitempty"`
	Term     string `json:"utm_term,omitempty"`
}

// IsEmpty reports whether no parameter is set
func (u UTM) IsEmpty() bool {
	return u.Source == "" && u.Medium == "" && u.Campaign == "" && u.Content == "" && u.Term == ""
}

func (u UTM) pairs() [][2]string {
	return [][2]string{
		{"utm_source", u.Source},
		{"utm_medium", u.Medium},
		{"utm_campaign", u.Campaign},
		{"utm_content", u.Content},
		{"utm_term", u.Term},
	}
}

var hrefRegex = regexp.MustCompile(`(<a[^>]*\s+href=["'])([^"']+)(["'][^>]*>)`)

var entityDecoder = strings.NewReplacer("&amp;", "&", "&quot;", `"`, "&#39;", "'", "&lt;", "<", "&gt;", ">")

// DecorateURL adds the set UTM parameters to an http(s) URL, skipping
// any UTM key the URL already has. The query is re-encoded with its keys
// sorted. Merge placeholders and relative or non-web links are returned
// unchanged.
func DecorateURL(rawURL string, utm UTM) string {
	if utm.IsEmpty() || !IsTrackable(rawURL) {
		return rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return rawURL
	}

	query := parsed.Query()
	for _, pair := range utm.pairs() {
		if pair[1] != "" && !query.Has(pair[0]) {
			query.Set(pair[0], pair[1])
		}
	}
	parsed.RawQuery = query.Encode()

	return parsed.String()
}

// IsTrackable reports whether a link target can carry campaign parameters
func IsTrackable(rawURL string) bool {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}
	if strings.Contains(trimmed, "{{") || strings.Contains(trimmed, "{%") {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"mailto:", "tel:", "sms:", "javascript:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

// DecorateLinks rewrites the href of every anchor in a compiled email
func DecorateLinks(html string, utm UTM) string {
	if utm.IsEmpty() {
		return html
	}

	return hrefRegex.ReplaceAllStringFunc(html, func(match string) string {
		parts := hrefRegex.FindStringSubmatch(match)
		if len(parts) != 4 {
			return match
		}

		original := entityDecoder.Replace(parts[2])
		decorated := DecorateURL(original, utm)
		if decorated == original {
			return match
		}
		return parts[1] + emailblocks.EscapeHTML(decorated) + parts[3]
	})
}
