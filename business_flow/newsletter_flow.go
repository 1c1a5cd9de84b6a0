package businessflow

import (
	"context"
	"strings"

	"github.com/sophron-goods/storefront-api/app/dto"
	"github.com/sophron-goods/storefront-api/app/services"
)

// NewsletterFlow defines newsletter operations.
type NewsletterFlow interface {
	Subscribe(ctx context.Context, req *dto.SubscribeRequest, metadata *ClientMetadata) (*dto.SubscribeResponse, error)
}

// NewsletterFlowImpl implements NewsletterFlow.
type NewsletterFlowImpl struct {
	newsletter services.NewsletterService
}

// NewNewsletterFlow creates a new newsletter flow.
func NewNewsletterFlow(newsletter services.NewsletterService) NewsletterFlow {
	return &NewsletterFlowImpl{newsletter: newsletter}
}

func (f *NewsletterFlowImpl) Subscribe(ctx context.Context, req *dto.SubscribeRequest, metadata *ClientMetadata) (*dto.SubscribeResponse, error) {
	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "request is required", nil)
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, NewBusinessError("EMAIL_REQUIRED", "email is required", ErrEmailRequired)
	}

	fields := make([]services.NewsletterCustomField, 0, len(req.CustomFields)+1)
	for _, cf := range req.CustomFields {
		fields = append(fields, services.NewsletterCustomField{Name: cf.Name, Value: cf.Value})
	}
	if req.SignupDate != "" {
		fields = append(fields, services.NewsletterCustomField{Name: "signup_date", Value: req.SignupDate})
	}

	sub, err := f.newsletter.Subscribe(ctx, req.Email, req.Source, fields)
	if err != nil {
		return nil, err
	}
	return &dto.SubscribeResponse{ID: sub.ID, Email: sub.Email, Status: sub.Status}, nil
}
