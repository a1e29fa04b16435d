package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Notifuse/mailblocks/internal/domain"
	"github.com/Notifuse/mailblocks/pkg/emailblocks"
)

// Block operations edit the latest version of a template and store the
// result as a new version.

func (s *TemplateService) AddBlock(ctx context.Context, templateID string, kind emailblocks.BlockKind, position int) (*domain.Template, *emailblocks.Block, error) {
	if !kind.IsKnown() {
		return nil, nil, &domain.ErrInvalidBlock{Reason: fmt.Sprintf("unknown kind %q", kind), Err: emailblocks.ErrUnknownKind}
	}

	var added emailblocks.Block
	template, err := s.editDocument(ctx, templateID, "", func(doc emailblocks.Document) (emailblocks.Document, error) {
		out, block, err := doc.AddBlock(kind, position)
		added = block
		return out, err
	})
	if err != nil {
		return nil, nil, err
	}

	return template, &added, nil
}

func (s *TemplateService) UpdateBlock(ctx context.Context, templateID, blockID string, properties map[string]interface{}) (*domain.Template, error) {
	return s.editDocument(ctx, templateID, blockID, func(doc emailblocks.Document) (emailblocks.Document, error) {
		return doc.ReplaceProperties(blockID, properties)
	})
}

func (s *TemplateService) MoveBlock(ctx context.Context, templateID, blockID string, position int) (*domain.Template, error) {
	return s.editDocument(ctx, templateID, blockID, func(doc emailblocks.Document) (emailblocks.Document, error) {
		return doc.MoveBlock(blockID, position)
	})
}

func (s *TemplateService) DuplicateBlock(ctx context.Context, templateID, blockID string) (*domain.Template, *emailblocks.Block, error) {
	var duplicate emailblocks.Block
	template, err := s.editDocument(ctx, templateID, blockID, func(doc emailblocks.Document) (emailblocks.Document, error) {
		out, block, err := doc.DuplicateBlock(blockID)
		duplicate = block
		return out, err
	})
	if err != nil {
		return nil, nil, err
	}

	return template, &duplicate, nil
}

func (s *TemplateService) DeleteBlock(ctx context.Context, templateID, blockID string) (*domain.Template, error) {
	return s.editDocument(ctx, templateID, blockID, func(doc emailblocks.Document) (emailblocks.Document, error) {
		return doc.RemoveBlock(blockID)
	})
}

func (s *TemplateService) editDocument(ctx context.Context, templateID, blockID string, edit func(emailblocks.Document) (emailblocks.Document, error)) (*domain.Template, error) {
	template, err := s.GetTemplateByID(ctx, templateID, 0)
	if err != nil {
		return nil, err
	}

	doc, err := edit(template.Document)
	if err != nil {
		if errors.Is(err, emailblocks.ErrBlockNotFound) {
			return nil, &domain.ErrBlockNotFound{TemplateID: templateID, BlockID: blockID}
		}
		return nil, &domain.ErrInvalidBlock{Reason: "edit failed", Err: err}
	}

	if err := doc.Validate(); err != nil {
		return nil, &domain.ErrInvalidBlock{Reason: "document would be invalid", Err: err}
	}

	updated := *template
	updated.Document = doc
	if err := s.saveVersion(ctx, &updated); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"template_id": templateID,
		"version":     updated.Version,
		"blocks":      len(doc.Blocks),
	}).Debug("Stored edited template document")

	return &updated, nil
}
