package emailblocks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{
		Settings: Settings{ContentWidth: 600},
		Blocks: []Block{
			{ID: "a", Kind: KindHeader, Properties: DefaultProperties(KindHeader)},
			{ID: "b", Kind: KindText, Properties: DefaultProperties(KindText)},
			{ID: "c", Kind: KindFooter, Properties: DefaultProperties(KindFooter)},
		},
	}
}

func ids(doc Document) []string {
	out := make([]string, len(doc.Blocks))
	for i, b := range doc.Blocks {
		out[i] = b.ID
	}
	return out
}

func TestDocument_AddBlock(t *testing.T) {
	tests := []struct {
		name     string
		position int
		wantAt   int
	}{
		{name: "at start", position: 0, wantAt: 0},
		{name: "in the middle", position: 2, wantAt: 2},
		{name: "negative appends", position: -1, wantAt: 3},
		{name: "past the end appends", position: 42, wantAt: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDocument()
			updated, added, err := doc.AddBlock(KindButton, tt.position)
			require.NoError(t, err)

			assert.Len(t, updated.Blocks, 4)
			assert.Equal(t, added.ID, updated.Blocks[tt.wantAt].ID)
			assert.Equal(t, KindButton, updated.Blocks[tt.wantAt].Kind)
			assert.Equal(t, "#", updated.Blocks[tt.wantAt].Properties["url"])
			assert.Len(t, doc.Blocks, 3, "receiver must not change")
		})
	}

	_, _, err := sampleDocument().AddBlock("bogus", 0)
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestDocument_ReplaceProperties(t *testing.T) {
	doc := sampleDocument()

	updated, err := doc.ReplaceProperties("b", map[string]interface{}{
		"content": "<p>New</p>",
		"extra":   "kept",
	})
	require.NoError(t, err)

	props := updated.Blocks[1].Properties
	assert.Equal(t, "<p>New</p>", props["content"])
	assert.Equal(t, "kept", props["extra"])
	assert.Equal(t, "16px", props["fontSize"], "missing keys are restored from defaults")
	assert.Equal(t, "<p>Start writing your message here.</p>", doc.Blocks[1].Properties["content"])

	_, err = doc.ReplaceProperties("missing", nil)
	assert.True(t, errors.Is(err, ErrBlockNotFound))
}

func TestDocument_MoveBlock(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		position int
		want     []string
	}{
		{name: "first to last", id: "a", position: 2, want: []string{"b", "c", "a"}},
		{name: "last to first", id: "c", position: 0, want: []string{"c", "a", "b"}},
		{name: "same position", id: "b", position: 1, want: []string{"a", "b", "c"}},
		{name: "clamped high", id: "a", position: 10, want: []string{"b", "c", "a"}},
		{name: "clamped low", id: "c", position: -3, want: []string{"c", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDocument()
			moved, err := doc.MoveBlock(tt.id, tt.position)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(moved))
			assert.Equal(t, []string{"a", "b", "c"}, ids(doc))
		})
	}

	_, err := sampleDocument().MoveBlock("zzz", 0)
	assert.True(t, errors.Is(err, ErrBlockNotFound))
}

func TestDocument_DuplicateBlock(t *testing.T) {
	doc := sampleDocument()

	updated, dup, err := doc.DuplicateBlock("b")
	require.NoError(t, err)

	require.Len(t, updated.Blocks, 4)
	assert.Equal(t, dup.ID, updated.Blocks[2].ID)
	assert.NotEqual(t, "b", dup.ID)
	assert.Equal(t, KindText, dup.Kind)
	assert.Equal(t, updated.Blocks[1].Properties, updated.Blocks[2].Properties)

	updated.Blocks[2].Properties["content"] = "changed"
	assert.NotEqual(t, "changed", updated.Blocks[1].Properties["content"])

	_, _, err = doc.DuplicateBlock("nope")
	assert.True(t, errors.Is(err, ErrBlockNotFound))
}

func TestDocument_RemoveBlock(t *testing.T) {
	doc := sampleDocument()

	updated, err := doc.RemoveBlock("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(updated))
	assert.Equal(t, []string{"a", "b", "c"}, ids(doc))

	_, err = doc.RemoveBlock("b2")
	assert.True(t, errors.Is(err, ErrBlockNotFound))
}

func TestDocument_Block(t *testing.T) {
	doc := sampleDocument()

	b, err := doc.Block("c")
	require.NoError(t, err)
	assert.Equal(t, KindFooter, b.Kind)

	b.Properties["companyName"] = "Changed"
	assert.Equal(t, "Your Company", doc.Blocks[2].Properties["companyName"])

	_, err = doc.Block("x")
	assert.True(t, errors.Is(err, ErrBlockNotFound))
	assert.Equal(t, -1, doc.IndexOf("x"))
}

func TestDocument_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, sampleDocument().Validate())
		assert.NoError(t, Document{}.Validate())
	})

	t.Run("duplicate ids", func(t *testing.T) {
		doc := sampleDocument()
		doc.Blocks[2].ID = "a"
		err := doc.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate id "a"`)
	})

	t.Run("missing id", func(t *testing.T) {
		doc := sampleDocument()
		doc.Blocks[0].ID = ""
		assert.ErrorContains(t, doc.Validate(), "id is required")
	})

	t.Run("unknown kind", func(t *testing.T) {
		doc := sampleDocument()
		doc.Blocks[1].Kind = "bogus"
		err := doc.Validate()
		assert.True(t, errors.Is(err, ErrUnknownKind))
	})

	t.Run("too many columns", func(t *testing.T) {
		doc := Document{Blocks: []Block{{
			ID:   "cols",
			Kind: KindColumns,
			Properties: map[string]interface{}{
				"columns": []Column{{}, {}, {}, {}, {}},
			},
		}}}
		assert.ErrorContains(t, doc.Validate(), "between 1 and 4 columns, got 5")
	})

	t.Run("no columns", func(t *testing.T) {
		doc := Document{Blocks: []Block{{ID: "cols", Kind: KindColumns, Properties: map[string]interface{}{}}}}
		assert.ErrorContains(t, doc.Validate(), "got 0")
	})

	t.Run("bad content width", func(t *testing.T) {
		doc := sampleDocument()
		doc.Settings.ContentWidth = "wide"
		assert.ErrorContains(t, doc.Validate(), "contentWidth")
	})
}

func TestSettings_Validate(t *testing.T) {
	width, err := Settings{ContentWidth: float64(700)}.Validate()
	assert.NoError(t, err)
	assert.Equal(t, 700, width)

	width, err = Settings{}.Validate()
	assert.NoError(t, err)
	assert.Equal(t, DefaultContentWidth, width)

	width, err = Settings{ContentWidth: -5}.Validate()
	assert.Error(t, err)
	assert.Equal(t, DefaultContentWidth, width)
}

func TestDocument_JSONRoundTrip(t *testing.T) {
	raw := []byte(`{"settings":{"contentWidth":640,"fontFamily":"Georgia"},"blocks":[{"id":"x1","type":"spacer","properties":{"height":"20px"}}]}`)

	doc, err := UnmarshalDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, float64(640), doc.Settings.ContentWidth)
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, KindSpacer, doc.Blocks[0].Kind)

	value, err := doc.Value()
	require.NoError(t, err)

	var scanned Document
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, doc, scanned)

	empty, err := UnmarshalDocument([]byte(`{"settings":{}}`))
	require.NoError(t, err)
	assert.NotNil(t, empty.Blocks)

	_, err = UnmarshalDocument([]byte(`{`))
	assert.Error(t, err)

	assert.Error(t, scanned.Scan(42))
}
