package plaintext

import (
	"testing"

	"github.com/Notifuse/mailblocks/pkg/emailblocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{name: "empty", html: "   ", want: ""},
		{name: "paragraphs", html: `<p>Hello <strong>Ada</strong></p><p>Second</p>`, want: "Hello Ada\n\nSecond"},
		{name: "link with label", html: `<p>Visit <a href="https://example.com">our site</a>.</p>`, want: "Visit our site (https://example.com)."},
		{name: "link equal to label", html: `<a href="https://x.com">https://x.com</a>`, want: "https://x.com"},
		{name: "anchor link keeps label", html: `<a href="#top">Back to top</a>`, want: "Back to top"},
		{name: "image link uses alt", html: `<a href="https://x.com/sale"><img src="b.png" alt="Banner"></a>`, want: "Banner (https://x.com/sale)"},
		{name: "standalone image alt", html: `<img src="logo.png" alt="Logo">`, want: "[Logo]"},
		{name: "line breaks", html: `Line one<br>Line two`, want: "Line one\nLine two"},
		{name: "lists", html: `<ul><li>One</li><li>Two</li></ul>`, want: "- One\n- Two"},
		{name: "entities", html: `<p>A&nbsp;B&zwnj;C&zwj;D</p>`, want: "A BCD"},
		{name: "source whitespace collapses", html: "<p>\n  spread\n   over   lines\n</p>", want: "spread over lines"},
		{name: "comments skipped", html: `<p>Kept<!--[if mso]>hidden<![endif]--></p>`, want: "Kept"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromHTML(tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromHTML_CompiledEmail(t *testing.T) {
	doc := emailblocks.Document{
		Settings: emailblocks.Settings{Preheader: "Secret preview text", Title: "Newsletter"},
		Blocks: []emailblocks.Block{
			{ID: "h", Kind: emailblocks.KindHeader, Properties: map[string]interface{}{"companyName": "Acme"}},
			{ID: "t", Kind: emailblocks.KindText, Properties: map[string]interface{}{"content": "<p>Hi {{ first_name }},</p><p>New arrivals.</p>"}},
			{ID: "b", Kind: emailblocks.KindButton, Properties: map[string]interface{}{"text": "Shop", "url": "https://shop.example.com"}},
			{ID: "f", Kind: emailblocks.KindFooter, Properties: emailblocks.DefaultProperties(emailblocks.KindFooter)},
		},
	}

	text, err := FromHTML(emailblocks.Render(doc))
	require.NoError(t, err)

	assert.Contains(t, text, "Acme")
	assert.Contains(t, text, "Hi {{ first_name }},\n\nNew arrivals.")
	assert.Contains(t, text, "Shop (https://shop.example.com)")
	assert.Contains(t, text, "Unsubscribe ({{unsubscribe_url}})")

	assert.NotContains(t, text, "Secret preview text")
	assert.NotContains(t, text, "Newsletter")
	assert.NotContains(t, text, "@media")
	assert.NotContains(t, text, "<")
	assert.NotContains(t, text, "\n\n\n")
}
