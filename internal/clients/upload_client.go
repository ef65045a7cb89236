package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iotplatform/device-onboarding/internal/models"
)

// DocumentUploader sends a documentation artifact to the processing service
// and returns the opaque handle used by later stages.
type DocumentUploader interface {
	Upload(ctx context.Context, doc models.DocumentUpload) (*models.DocumentHandle, error)
}

// uploadResponse is the wire shape returned by POST /documents.
type uploadResponse struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

// UploadClient implements DocumentUploader against the document-processing
// service's HTTP API.
type UploadClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewUploadClient creates an UploadClient with a per-call timeout. Timeouts
// are this adapter's responsibility, not the orchestrator's.
func NewUploadClient(baseURL, authToken string, timeout time.Duration, logger zerolog.Logger) *UploadClient {
	return &UploadClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Upload posts the document as multipart form data. The caller validates the
// size bound and media type before this is reached.
func (c *UploadClient) Upload(ctx context.Context, doc models.DocumentUpload) (*models.DocumentHandle, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, doc.Filename))
	header.Set("Content-Type", models.PDFContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(doc.Data); err != nil {
		return nil, fmt.Errorf("failed to write document content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	c.logger.Info().
		Str("filename", doc.Filename).
		Int("size", len(doc.Data)).
		Msg("Uploading document to processing service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "upload document", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read upload response", Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &UploadError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(payload))}
	}

	var parsed uploadResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, &UploadError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("unparseable upload response: %v", err)}
	}

	if parsed.Status != "completed" {
		return nil, &UploadError{StatusCode: resp.StatusCode, Message: parsed.Message}
	}
	if parsed.Filename == "" {
		return nil, &UploadError{StatusCode: resp.StatusCode, Message: "processing service returned no stored filename"}
	}

	c.logger.Info().
		Str("filename", doc.Filename).
		Str("stored_name", parsed.Filename).
		Msg("Document stored by processing service")

	return &models.DocumentHandle{
		StoredName:   parsed.Filename,
		OriginalName: doc.Filename,
		Size:         int64(len(doc.Data)),
		ContentType:  models.PDFContentType,
	}, nil
}
