package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/smartprint/backend/internal/domain/document"
	"github.com/smartprint/backend/internal/domain/printjob"
	"github.com/smartprint/backend/internal/domain/shared"
)

// DefaultDeliveryTimeout bounds one delivery round trip to a printer
const DefaultDeliveryTimeout = 60 * time.Second

// JobMetadata accompanies every delivered job
type JobMetadata struct {
	Token     string
	UID       string
	UserEmail string
}

// pageCountPayload is the JSON body for pre-approved document jobs
type pageCountPayload struct {
	PageCount int    `json:"page_count"`
	Token     string `json:"token"`
	UID       string `json:"uid"`
	UserEmail string `json:"user_email"`
}

// Client delivers confirmed print jobs to a resolved dispatch target.
// The printer acknowledges with a plain-text message shown to the user
// verbatim.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a dispatch client
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// DeliverUpload sends an upload job: POST {target}/upload with a
// multipart body carrying the composed file, token and uid.
func (c *Client) DeliverUpload(ctx context.Context, target Target, artifact *document.ComposedArtifact, meta JobMetadata) (string, error) {
	if artifact == nil || len(artifact.Data) == 0 {
		return "", shared.NewDomainError("INVALID_INPUT", "Upload job has no document payload")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", artifact.Name)
	if err != nil {
		return "", fmt.Errorf("dispatch: failed to build multipart body: %w", err)
	}
	if _, err := part.Write(artifact.Data); err != nil {
		return "", fmt.Errorf("dispatch: failed to write file part: %w", err)
	}
	if err := writer.WriteField("token", meta.Token); err != nil {
		return "", fmt.Errorf("dispatch: failed to write token field: %w", err)
	}
	if err := writer.WriteField("uid", meta.UID); err != nil {
		return "", fmt.Errorf("dispatch: failed to write uid field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("dispatch: failed to finalize multipart body: %w", err)
	}

	return c.post(ctx, target.String()+"/upload", writer.FormDataContentType(), &body)
}

// DeliverPageCount sends a pre-approved document job:
// POST {target}/print_{serviceKind} with a JSON body.
func (c *Client) DeliverPageCount(ctx context.Context, target Target, kind printjob.ServiceKind, pageCount int, meta JobMetadata) (string, error) {
	name := kind.DispatchName()
	if name == "" {
		return "", shared.NewDomainError("INVALID_INPUT", "Service kind has no page-count dispatch")
	}
	if pageCount < 1 {
		return "", shared.NewDomainError("INVALID_INPUT", "Page count must be positive")
	}

	payload, err := json.Marshal(pageCountPayload{
		PageCount: pageCount,
		Token:     meta.Token,
		UID:       meta.UID,
		UserEmail: meta.UserEmail,
	})
	if err != nil {
		return "", fmt.Errorf("dispatch: failed to marshal payload: %w", err)
	}

	return c.post(ctx, target.String()+"/print_"+name, "application/json", bytes.NewReader(payload))
}

// post performs the delivery exchange and returns the plain-text ack
func (c *Client) post(ctx context.Context, url, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("dispatch: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("dispatch delivery failed", zap.String("url", url), zap.Error(err))
		return "", shared.ErrDispatchFailed
	}
	defer func() { _ = resp.Body.Close() }()

	ack, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", shared.ErrDispatchFailed
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("dispatch target rejected job",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)
		return "", shared.ErrDispatchFailed
	}

	return string(ack), nil
}
