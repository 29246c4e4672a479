package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/pkg/errors"
)

// FetchReports returns the full current report list. A single request is
// all-or-nothing.
func (c *Client) FetchReports(ctx context.Context) ([]model.Report, error) {
	const op = "fetch reports"

	path := c.ReportsPath
	if path == "" {
		path = pathReports
	}
	req, err := c.newGet(ctx, path, nil)
	if err != nil {
		return nil, protocolError(op, "build request", err)
	}

	code, body, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	if !success(code) {
		return nil, unexpectedStatus(op, code)
	}

	reports, err := decodeReports(body, true)
	if err != nil {
		return nil, protocolError(op, "malformed reports envelope", err)
	}
	return reports, nil
}

// FilterReports runs the backend location filter. The result is independent
// of the main report list.
func (c *Client) FilterReports(ctx context.Context, filter model.ReportFilter) ([]model.Report, error) {
	const op = "filter reports"

	req, err := c.newGet(ctx, pathFilter, filter)
	if err != nil {
		return nil, protocolError(op, "build request", err)
	}

	code, body, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	if !success(code) {
		return nil, unexpectedStatus(op, code)
	}

	reports, err := decodeReports(body, false)
	if err != nil {
		return nil, protocolError(op, "malformed reports envelope", err)
	}
	return reports, nil
}

// SubmitReport posts a new report as a multipart form. It returns the id of
// the created report when the backend reports one.
func (c *Client) SubmitReport(ctx context.Context, draft model.ReportDraft) (string, error) {
	const op = "submit report"

	if len(draft.Images) > model.MaxReportImages {
		return "", validationError(op, fmt.Sprintf("at most %d images can be attached", model.MaxReportImages))
	}

	payload, contentType, err := encodeReport(draft)
	if err != nil {
		return "", protocolError(op, "encode multipart form", err)
	}

	reqURL, err := c.buildURL(pathSubmit, nil)
	if err != nil {
		return "", protocolError(op, "build request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, payload)
	if err != nil {
		return "", protocolError(op, "build request", errors.Wrap(err, "create request"))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	code, body, err := c.do(op, req)
	if err != nil {
		return "", err
	}

	env, err := decodeStatus(body)
	if err != nil {
		if !success(code) {
			return "", unexpectedStatus(op, code)
		}
		return "", protocolError(op, "malformed status envelope", err)
	}
	if !env.ok() || !success(code) {
		msg := env.Message
		if msg == "" {
			msg = "Failed to submit the report"
		}
		return "", validationError(op, msg)
	}

	id := string(env.ReportID)
	if id == "" {
		id = string(env.ID)
	}
	return id, nil
}

func encodeReport(draft model.ReportDraft) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := []struct{ name, value string }{
		{"location", draft.Location},
		{"issueType", draft.IssueType},
		{"description", draft.Description},
		{"agency", draft.Agency},
		{"officialName", draft.OfficialName},
		{"urgency", draft.Urgency},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", errors.Wrapf(err, "write field %s", f.name)
		}
	}

	for i, img := range draft.Images {
		contentType := img.ContentType
		if contentType == "" {
			contentType = http.DetectContentType(img.Data)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image%d"; filename="%s"`, i, escapeQuotes(img.Filename)))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", errors.Wrapf(err, "create image part %d", i)
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", errors.Wrapf(err, "write image part %d", i)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "close multipart writer")
	}
	return buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// AssignTask assigns a report to an agency member from the dashboard.
func (c *Client) AssignTask(ctx context.Context, assignment model.AssignTaskRequest) error {
	const op = "assign task"

	env, err := c.postStatus(ctx, op, pathAssignTask, assignment)
	if err != nil {
		return err
	}
	if !env.ok() {
		return validationError(op, messageOr(env.Message, "Failed to assign task"))
	}
	return nil
}
