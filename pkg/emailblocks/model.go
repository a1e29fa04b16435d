package emailblocks

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BlockKind represents the closed set of content block kinds
type BlockKind string

const (
	KindHeader  BlockKind = "header"
	KindHero    BlockKind = "hero"
	KindText    BlockKind = "text"
	KindImage   BlockKind = "image"
	KindButton  BlockKind = "button"
	KindDivider BlockKind = "divider"
	KindSpacer  BlockKind = "spacer"
	KindColumns BlockKind = "columns"
	KindSocial  BlockKind = "social"
	KindFooter  BlockKind = "footer"
)

// KnownKinds lists every block kind in palette order
var KnownKinds = []BlockKind{
	KindHeader,
	KindHero,
	KindText,
	KindImage,
	KindButton,
	KindDivider,
	KindSpacer,
	KindColumns,
	KindSocial,
	KindFooter,
}

// MaxColumns is the largest number of columns a columns block can hold
const MaxColumns = 4

var (
	ErrUnknownKind   = errors.New("unknown block kind")
	ErrBlockNotFound = errors.New("block not found")
)

// IsKnown reports whether k is one of the ten renderable kinds
func (k BlockKind) IsKnown() bool {
	switch k {
	case KindHeader, KindHero, KindText, KindImage, KindButton,
		KindDivider, KindSpacer, KindColumns, KindSocial, KindFooter:
		return true
	default:
		return false
	}
}

// Settings holds the document-level rendering options.
//
// ContentWidth is kept as a raw value because documents come from an editor
// that does not guarantee a number; it is coerced when rendering.
type Settings struct {
	BackgroundColor        string      `json:"backgroundColor,omitempty"`
	ContentBackgroundColor string      `json:"contentBackgroundColor,omitempty"`
	FontFamily             string      `json:"fontFamily,omitempty"`
	ContentWidth           interface{} `json:"contentWidth,omitempty"`
	Preheader              string      `json:"preheader,omitempty"`
	Title                  string      `json:"title,omitempty"`
}

// Block is one independently positioned content unit of an email
type Block struct {
	ID         string                 `json:"id"`
	Kind       BlockKind              `json:"type"`
	Properties map[string]interface{} `json:"properties"`
}

// Column is a single cell of a columns block
type Column struct {
	Content   string `json:"content"`
	Padding   string `json:"padding,omitempty"`
	Alignment string `json:"alignment,omitempty"`
	FontSize  string `json:"fontSize,omitempty"`
	Color     string `json:"color,omitempty"`
}

// SocialNetwork is a single badge of a social block
type SocialNetwork struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// Document is the durable, editable description of an email
type Document struct {
	Settings Settings `json:"settings"`
	Blocks   []Block  `json:"blocks"`
}

// UnmarshalDocument decodes a {settings, blocks} JSON document
func UnmarshalDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to unmarshal document JSON: %w", err)
	}
	if doc.Blocks == nil {
		doc.Blocks = []Block{}
	}
	return doc, nil
}

// Value implements the driver.Valuer interface for database storage
func (d Document) Value() (driver.Value, error) {
	if d.Blocks == nil {
		d.Blocks = []Block{}
	}
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface for database retrieval
func (d *Document) Scan(value interface{}) error {
	var data []byte

	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		// the driver reuses the buffer for the next row
		data = bytes.Clone(v)
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("type assertion to []byte failed for Document")
	}

	doc, err := UnmarshalDocument(data)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// KindDisplayName returns a human-readable name for a block kind
func KindDisplayName(kind BlockKind) string {
	switch kind {
	case KindHeader:
		return "Header"
	case KindHero:
		return "Hero"
	case KindText:
		return "Text"
	case KindImage:
		return "Image"
	case KindButton:
		return "Button"
	case KindDivider:
		return "Divider"
	case KindSpacer:
		return "Spacer"
	case KindColumns:
		return "Columns"
	case KindSocial:
		return "Social Links"
	case KindFooter:
		return "Footer"
	default:
		parts := strings.FieldsFunc(string(kind), func(r rune) bool {
			return r == '-' || r == '_' || r == ' '
		})
		for i, part := range parts {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
		return strings.Join(parts, " ")
	}
}

// KindCategory returns the palette group of a block kind
func KindCategory(kind BlockKind) string {
	switch kind {
	case KindHeader, KindHero, KindFooter:
		return "Structure"
	case KindText, KindImage, KindButton:
		return "Content"
	case KindDivider, KindSpacer:
		return "Spacing"
	case KindColumns:
		return "Layout"
	case KindSocial:
		return "Social"
	default:
		return "Other"
	}
}
