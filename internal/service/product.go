package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/makolaonline/whatsapp-router/internal/domain"
	"github.com/makolaonline/whatsapp-router/internal/parser"
)

func (s *Service) handleProductUpload(ctx context.Context, msg domain.Message) error {
	seller, err := s.store.FindSellerByContact(ctx, msg.SenderID)
	if err != nil {
		return fmt.Errorf("failed to find seller: %w", err)
	}
	if seller == nil {
		return s.reply(ctx, msg.SenderID, sellerNotRegisteredReply)
	}

	fields := parser.ParseProduct(msg.Text)
	draft := &domain.ProductUploadDraft{
		ID:                "upl_" + uuid.New().String()[:8],
		SellerID:          seller.ID,
		SenderID:          msg.SenderID,
		RawText:           msg.Text,
		ImageRefs:         msg.ImageRefs,
		ParsedTitle:       fields.Title,
		ParsedPrice:       fields.Price,
		ParsedDescription: fields.Description,
		ParsedCategory:    fields.Category,
		Status:            domain.UploadStatusPending,
		CreatedAt:         s.now(),
	}

	if err := s.store.InsertProductDraft(ctx, draft); err != nil {
		s.logger.ErrorContext(ctx, "failed to create upload", "seller_id", seller.ID, "error", err)
		return s.reply(ctx, msg.SenderID, uploadFailedReply)
	}

	s.logger.InfoContext(ctx, "product draft created", "upload_id", draft.ID, "seller_id", seller.ID, "images", len(draft.ImageRefs))
	return s.reply(ctx, msg.SenderID, productReceivedReply(fields))
}

// ListUploads lists product drafts for the upload manager.
func (s *Service) ListUploads(ctx context.Context, sellerID string, status domain.UploadStatus, limit int) ([]domain.ProductUploadDraft, error) {
	return s.store.ListProductDrafts(ctx, sellerID, status, limit)
}
