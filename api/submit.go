package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/scrutin-io/scrutin/iox"
	"github.com/scrutin-io/scrutin/types"
)

// GroupedSubmissionRequest bundles grouped station totals with their PV
// evidence attachments.
type GroupedSubmissionRequest struct {
	Submission  types.GroupedSubmission
	Attachments []Attachment
}

// MaxAttachments is the PV evidence limit per grouped submission.
const MaxAttachments = 10

// pdfContentType is the only MIME type accepted for PV evidence.
const pdfContentType = "application/pdf"

// Attachment is one PV evidence file for a grouped submission.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Validation errors for grouped submissions. Both reject client-side,
// before any network I/O.
var (
	ErrTooManyAttachments = fmt.Errorf("at most %d PV attachments allowed", MaxAttachments)
	ErrNotPDF             = errors.New("PV attachments must be PDF")
)

// ValidateAttachments applies the client-side PV rules: at most
// MaxAttachments files, all of them PDFs. A file passes the type check
// when it declares application/pdf and its bytes start with the PDF magic.
func ValidateAttachments(attachments []Attachment) error {
	if len(attachments) > MaxAttachments {
		return ErrTooManyAttachments
	}
	for _, a := range attachments {
		if a.ContentType != pdfContentType || !bytes.HasPrefix(a.Data, []byte("%PDF-")) {
			return fmt.Errorf("%w: %s", ErrNotPDF, a.Filename)
		}
	}
	return nil
}

// SubmitGrouped submits grouped station totals with optional PV evidence.
// Attachments are validated before anything touches the network.
func (c *Client) SubmitGrouped(ctx context.Context, sub GroupedSubmissionRequest) error {
	if err := ValidateAttachments(sub.Attachments); err != nil {
		return err
	}

	token := c.cfg.Token()
	if token == "" {
		c.unauthorized()
		return ErrNoToken
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	meta, err := json.Marshal(sub.Submission)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	if err := writer.WriteField("saisie", string(meta)); err != nil {
		return fmt.Errorf("write submission field: %w", err)
	}

	for _, a := range sub.Attachments {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="pv"; filename=%q`, a.Filename))
		header.Set("Content-Type", a.ContentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create PV part: %w", err)
		}
		if _, err := part.Write(a.Data); err != nil {
			return fmt.Errorf("write PV %s: %w", a.Filename, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/saisie/groupes", &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setCommonHeaders(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit grouped totals: %w", err)
	}
	defer iox.DiscardClose(resp.Body)
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		c.unauthorized()
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}
