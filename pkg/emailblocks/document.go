package emailblocks

import (
	"errors"
	"fmt"
)

// Document edits never mutate the receiver: each returns a fresh copy so a
// document loaded from storage can be shared between goroutines.

// IndexOf returns the position of the block with the given id, or -1
func (d Document) IndexOf(id string) int {
	for i, block := range d.Blocks {
		if block.ID == id {
			return i
		}
	}
	return -1
}

// Block returns a copy of the block with the given id
func (d Document) Block(id string) (Block, error) {
	i := d.IndexOf(id)
	if i < 0 {
		return Block{}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return d.Blocks[i].Clone(), nil
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	blocks := make([]Block, len(d.Blocks))
	for i, block := range d.Blocks {
		blocks[i] = block.Clone()
	}
	return Document{Settings: d.Settings, Blocks: blocks}
}

// InsertBlock places block at position. A negative or out of range position
// appends it at the end.
func (d Document) InsertBlock(block Block, position int) Document {
	out := d.Clone()
	block = block.Clone()

	if position < 0 || position >= len(out.Blocks) {
		out.Blocks = append(out.Blocks, block)
		return out
	}

	out.Blocks = append(out.Blocks, Block{})
	copy(out.Blocks[position+1:], out.Blocks[position:])
	out.Blocks[position] = block
	return out
}

// AddBlock creates a default block of kind and inserts it at position
func (d Document) AddBlock(kind BlockKind, position int) (Document, Block, error) {
	block, err := NewBlock(kind)
	if err != nil {
		return d, Block{}, err
	}
	return d.InsertBlock(block, position), block, nil
}

// ReplaceProperties swaps the whole property map of a block. Keys missing
// from properties are filled from the kind's defaults.
func (d Document) ReplaceProperties(id string, properties map[string]interface{}) (Document, error) {
	i := d.IndexOf(id)
	if i < 0 {
		return d, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}

	out := d.Clone()
	out.Blocks[i].Properties = mergeWithDefaults(out.Blocks[i].Kind, properties)
	return out, nil
}

// MoveBlock moves the block with the given id to position, clamped to the
// bounds of the block list.
func (d Document) MoveBlock(id string, position int) (Document, error) {
	from := d.IndexOf(id)
	if from < 0 {
		return d, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}

	out := d.Clone()
	last := len(out.Blocks) - 1
	if position < 0 {
		position = 0
	}
	if position > last {
		position = last
	}
	if position == from {
		return out, nil
	}

	block := out.Blocks[from]
	out.Blocks = append(out.Blocks[:from], out.Blocks[from+1:]...)
	out.Blocks = append(out.Blocks, Block{})
	copy(out.Blocks[position+1:], out.Blocks[position:])
	out.Blocks[position] = block
	return out, nil
}

// DuplicateBlock deep-copies a block under a fresh id, right after the source
func (d Document) DuplicateBlock(id string) (Document, Block, error) {
	i := d.IndexOf(id)
	if i < 0 {
		return d, Block{}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}

	dup := d.Blocks[i].Clone()
	dup.ID = NewBlockID()
	for d.IndexOf(dup.ID) >= 0 {
		dup.ID = NewBlockID()
	}

	return d.InsertBlock(dup, i+1), dup, nil
}

// RemoveBlock deletes the block with the given id
func (d Document) RemoveBlock(id string) (Document, error) {
	i := d.IndexOf(id)
	if i < 0 {
		return d, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}

	out := d.Clone()
	out.Blocks = append(out.Blocks[:i], out.Blocks[i+1:]...)
	return out, nil
}

// Validate checks the structural rules a stored document must satisfy
func (d Document) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(d.Blocks))

	for i, block := range d.Blocks {
		if block.ID == "" {
			errs = append(errs, fmt.Errorf("block %d: id is required", i))
		} else if seen[block.ID] {
			errs = append(errs, fmt.Errorf("block %d: duplicate id %q", i, block.ID))
		}
		seen[block.ID] = true

		if !block.Kind.IsKnown() {
			errs = append(errs, fmt.Errorf("block %d: %w: %q", i, ErrUnknownKind, block.Kind))
			continue
		}

		if block.Kind == KindColumns {
			count := len(props(block.Properties).columns())
			if count < 1 || count > MaxColumns {
				errs = append(errs, fmt.Errorf("block %d: columns block must hold between 1 and %d columns, got %d", i, MaxColumns, count))
			}
		}
	}

	if _, err := d.Settings.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate reports a contentWidth that is present but not a positive number.
// The returned width is the one Render will use.
func (s Settings) Validate() (int, error) {
	width := ContentWidth(s.ContentWidth)
	if s.ContentWidth == nil {
		return width, nil
	}
	if str, ok := s.ContentWidth.(string); ok && str == "" {
		return width, nil
	}

	var parsed bool
	switch v := s.ContentWidth.(type) {
	case string:
		n, ok := parseWidth(v)
		parsed = ok && n > 0
	default:
		n, ok := toInt(v)
		parsed = ok && n > 0
	}
	if !parsed {
		return width, fmt.Errorf("settings: contentWidth must be a positive number of pixels, got %v", s.ContentWidth)
	}
	return width, nil
}
