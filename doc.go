// Package backend provides the LinkUp API server.

// This package contains the module root. The functionality is organized
// into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/validation: Input validators and gin binding integration
// - internal/storage: Image storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/email: Transactional email delivery (SES)
// - internal/moderation: Content moderation service client
// - internal/middleware: HTTP middleware (rate limiting, etc.)
// - internal/stories: Story expiry cleanup
// - internal/docs: Embedded OpenAPI reference

// See the individual package documentation for detailed API reference.
package backend
