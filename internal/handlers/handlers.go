package handlers

import (
	"github.com/linkup-app/backend/internal/auth"
	"github.com/linkup-app/backend/internal/email"
	"github.com/linkup-app/backend/internal/moderation"
	"github.com/linkup-app/backend/internal/storage"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	authService *auth.Service
	emailSender *email.Sender
	uploader    *storage.ImageUploader
	moderator   *moderation.Client
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	authService *auth.Service,
	emailSender *email.Sender,
	uploader *storage.ImageUploader,
	moderator *moderation.Client,
) *Handlers {
	return &Handlers{
		authService: authService,
		emailSender: emailSender,
		uploader:    uploader,
		moderator:   moderator,
	}
}
