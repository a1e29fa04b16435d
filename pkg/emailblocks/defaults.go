package emailblocks

import "fmt"

// defaultProperties is the canonical property template of every kind.
// It is never handed out directly: use DefaultProperties or NewBlock.
var defaultProperties = map[BlockKind]map[string]interface{}{
	KindHeader: {
		"companyName":     "Your Company",
		"tagline":         "",
		"logoUrl":         "",
		"logoWidth":       150,
		"backgroundColor": "#1a56db",
		"textColor":       "#ffffff",
		"fontSize":        "28px",
		"alignment":       "center",
		"padding":         "32px 24px",
	},
	KindHero: {
		"heading":         "Big news is here",
		"subheading":      "Tell your readers why this email matters to them.",
		"headingSize":     "36px",
		"subheadingSize":  "18px",
		"buttonText":      "Learn more",
		"buttonUrl":       "#",
		"buttonColor":     "#ffffff",
		"buttonTextColor": "#1a56db",
		"buttonRadius":    "6px",
		"backgroundColor": "#1e3a8a",
		"backgroundImage": "",
		"textColor":       "#ffffff",
		"alignment":       "center",
		"padding":         "56px 32px",
	},
	KindText: {
		"content":         "<p>Start writing your message here.</p>",
		"fontSize":        "16px",
		"lineHeight":      "1.6",
		"color":           "#333333",
		"backgroundColor": "#ffffff",
		"alignment":       "left",
		"padding":         "16px 32px",
	},
	KindImage: {
		"src":             "https://placehold.co/1200x600",
		"alt":             "Image",
		"linkUrl":         "",
		"width":           100,
		"pixelWidth":      520,
		"alignment":       "center",
		"backgroundColor": "#ffffff",
		"padding":         "16px 32px",
	},
	KindButton: {
		"text":            "Click here",
		"url":             "#",
		"backgroundColor": "#1a56db",
		"textColor":       "#ffffff",
		"borderRadius":    "6px",
		"fontSize":        "16px",
		"fontWeight":      "bold",
		"buttonPadding":   "14px 32px",
		"fullWidth":       false,
		"alignment":       "center",
		"containerBg":     "#ffffff",
		"padding":         "16px 32px",
	},
	KindDivider: {
		"color":           "#e5e7eb",
		"thickness":       "1px",
		"style":           "solid",
		"backgroundColor": "#ffffff",
		"padding":         "16px 32px",
	},
	KindSpacer: {
		"height":          "30px",
		"backgroundColor": "#ffffff",
	},
	KindColumns: {
		"columns": []interface{}{
			map[string]interface{}{
				"content":   "<p>First column content.</p>",
				"padding":   "10px",
				"alignment": "left",
				"fontSize":  "15px",
				"color":     "#333333",
			},
			map[string]interface{}{
				"content":   "<p>Second column content.</p>",
				"padding":   "10px",
				"alignment": "left",
				"fontSize":  "15px",
				"color":     "#333333",
			},
		},
		"gap":             20,
		"backgroundColor": "#ffffff",
		"padding":         "16px 22px",
	},
	KindSocial: {
		"networks": []interface{}{
			map[string]interface{}{"platform": "facebook", "url": "https://facebook.com"},
			map[string]interface{}{"platform": "twitter", "url": "https://twitter.com"},
			map[string]interface{}{"platform": "instagram", "url": "https://instagram.com"},
			map[string]interface{}{"platform": "linkedin", "url": "https://linkedin.com"},
		},
		"iconSize":        36,
		"alignment":       "center",
		"backgroundColor": "#ffffff",
		"padding":         "20px 32px",
	},
	KindFooter: {
		"companyName":     "Your Company",
		"address":         "123 Main Street, City, Country",
		"showUnsubscribe": true,
		"unsubscribeUrl":  "",
		"preferencesUrl":  "",
		"extraText":       "You are receiving this email because you subscribed to our updates.",
		"backgroundColor": "#f4f4f4",
		"textColor":       "#6b7280",
		"linkColor":       "#1a56db",
		"fontSize":        "12px",
		"alignment":       "center",
		"padding":         "32px 24px",
	},
}

// DefaultProperties returns a private deep copy of the default property
// template for kind, or nil when the kind is unknown.
func DefaultProperties(kind BlockKind) map[string]interface{} {
	defaults, ok := defaultProperties[kind]
	if !ok {
		return nil
	}
	return cloneMap(defaults)
}

// NewBlock creates a fully populated block of the given kind with a fresh id
func NewBlock(kind BlockKind) (Block, error) {
	props := DefaultProperties(kind)
	if props == nil {
		return Block{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return Block{
		ID:         NewBlockID(),
		Kind:       kind,
		Properties: props,
	}, nil
}

// Clone returns a deep copy of the block that shares no nested values
func (b Block) Clone() Block {
	return Block{
		ID:         b.ID,
		Kind:       b.Kind,
		Properties: cloneMap(b.Properties),
	}
}

// mergeWithDefaults overlays props on top of the kind's defaults
func mergeWithDefaults(kind BlockKind, props map[string]interface{}) map[string]interface{} {
	merged := DefaultProperties(kind)
	if merged == nil {
		merged = make(map[string]interface{}, len(props))
	}
	for k, v := range props {
		merged[k] = cloneValue(v)
	}
	return merged
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return cloneMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []map[string]interface{}:
		out := make([]map[string]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneMap(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case []Column:
		return append([]Column(nil), val...)
	case []SocialNetwork:
		return append([]SocialNetwork(nil), val...)
	default:
		return v
	}
}

// StarterKinds is the block sequence of a freshly created template
var StarterKinds = []BlockKind{KindHeader, KindText, KindButton, KindFooter}

// StarterDocument returns a new document holding one default block of each
// starter kind, with default settings.
func StarterDocument() Document {
	doc := Document{
		Settings: Settings{
			BackgroundColor:        DefaultBackgroundColor,
			ContentBackgroundColor: DefaultContentBackgroundColor,
			FontFamily:             DefaultFontFamily,
			ContentWidth:           DefaultContentWidth,
		},
		Blocks: make([]Block, 0, len(StarterKinds)),
	}
	for _, kind := range StarterKinds {
		block, _ := NewBlock(kind)
		doc.Blocks = append(doc.Blocks, block)
	}
	return doc
}
