package tracking

import (
	"strings"
	"testing"

	"github.com/Notifuse/mailblocks/pkg/emailblocks"
	"github.com/stretchr/testify/assert"
)

func TestDecorateURL(t *testing.T) {
	utm := UTM{Source: "newsletter", Medium: "email"}

	tests := []struct {
		name string
		url  string
		utm  UTM
		want string
	}{
		{name: "adds parameters", url: "https://example.com/sale?ref=nav", utm: utm, want: "https://example.com/sale?ref=nav&utm_medium=email&utm_source=newsletter"},
		{name: "keeps existing parameter", url: "https://example.com/?utm_source=partner", utm: utm, want: "https://example.com/?utm_medium=email&utm_source=partner"},
		{name: "re-encodes sorted query", url: "https://example.com/?z=1&a=b%20c", utm: utm, want: "https://example.com/?a=b+c&utm_medium=email&utm_source=newsletter&z=1"},
		{name: "encodes values", url: "http://example.com", utm: UTM{Campaign: "spring sale"}, want: "http://example.com?utm_campaign=spring+sale"},
		{name: "merge placeholder", url: "{{unsubscribe_url}}", utm: utm, want: "{{unsubscribe_url}}"},
		{name: "mailto", url: "mailto:hello@example.com", utm: utm, want: "mailto:hello@example.com"},
		{name: "anchor", url: "#", utm: utm, want: "#"},
		{name: "relative", url: "/pricing", utm: utm, want: "/pricing"},
		{name: "ftp scheme", url: "ftp://files.example.com", utm: utm, want: "ftp://files.example.com"},
		{name: "no parameters", url: "https://example.com", utm: UTM{}, want: "https://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecorateURL(tt.url, tt.utm))
		})
	}
}

func TestIsTrackable(t *testing.T) {
	assert.True(t, IsTrackable("https://example.com"))
	assert.False(t, IsTrackable(""))
	assert.False(t, IsTrackable("  #section"))
	assert.False(t, IsTrackable("TEL:+123"))
	assert.False(t, IsTrackable("https://example.com/{% if x %}"))
	assert.False(t, IsTrackable("javascript:alert(1)"))
}

func TestDecorateLinks(t *testing.T) {
	doc := emailblocks.Document{Blocks: []emailblocks.Block{
		{ID: "b", Kind: emailblocks.KindButton, Properties: map[string]interface{}{"text": "Shop", "url": "https://shop.example.com/?a=1&b=2"}},
		{ID: "i", Kind: emailblocks.KindImage, Properties: map[string]interface{}{"src": "https://cdn.example.com/a.png"}},
		{ID: "f", Kind: emailblocks.KindFooter, Properties: emailblocks.DefaultProperties(emailblocks.KindFooter)},
	}}
	html := emailblocks.Render(doc)

	decorated := DecorateLinks(html, UTM{Source: "newsletter"})

	assert.Contains(t, decorated, `href="https://shop.example.com/?a=1&amp;b=2&amp;utm_source=newsletter"`)
	assert.Contains(t, decorated, `href="{{unsubscribe_url}}"`)
	assert.Contains(t, decorated, `src="https://cdn.example.com/a.png"`)
	assert.Equal(t, 1, strings.Count(decorated, "utm_source"))

	assert.Equal(t, html, DecorateLinks(html, UTM{}))
}
