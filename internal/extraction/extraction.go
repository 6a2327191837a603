// Package extraction defines the contract with the external invoice
// extraction service and decodes its replies.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/kerem-gursoy/uup/internal/apierror"
)

// Prompt is the fixed instruction sent with every invoice image. The supplier
// is already known from the upload, so it is deliberately not requested.
const Prompt = `
You are an invoice parser. Read the attached invoice image and extract structured data.
The supplier is already known; do NOT infer or include supplier info.
Return ONLY valid JSON with this exact shape:
{
  "issue_date": string | null,
  "currency": string | null,
  "line_items": [
    {
      "line_no": number | null,
      "code": string | null,
      "description": string,
      "barcode": string | null,
      "quantity": number | null,
      "unit": string | null,
      "unit_price": number | null,
      "total_price": number | null
    }
  ]
}
Use null when a value is missing. Do not include any text outside the JSON.`

// Extractor turns document bytes into a decoded extraction reply.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (*Document, error)
}

// Document is an untrusted extraction reply. Values keep their JSON types
// (numbers as json.Number) so callers can normalize them.
type Document struct {
	SupplierName any
	IssueDate    any
	Currency     any
	LineItems    []map[string]any
}

var (
	fenceOpenTagged = regexp.MustCompile("(?i)^```json\\s*")
	fenceOpenBare   = regexp.MustCompile("^```\\s*")
	fenceClose      = regexp.MustCompile("```$")
)

// StripCodeFence removes a markdown fence (```json or bare ```) around text.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	s = fenceOpenTagged.ReplaceAllString(s, "")
	s = fenceOpenBare.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

var errTrailingData = errors.New("unexpected data after JSON value")

// Decode parses a raw reply body. Empty bodies and anything that is not a JSON
// object once fences are stripped fail with an upstream error. A missing or
// non-array line_items yields no lines; non-object items become empty lines.
func Decode(text string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierror.Upstream("extraction returned empty response", nil)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(StripCodeFence(text))))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, apierror.Upstream("failed to parse extraction response as JSON", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, apierror.Upstream("failed to parse extraction response as JSON", errTrailingData)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, apierror.Upstream("extraction response is not a JSON object", nil)
	}

	doc := &Document{
		SupplierName: obj["supplier_name"],
		IssueDate:    obj["issue_date"],
		Currency:     obj["currency"],
	}
	if items, ok := obj["line_items"].([]any); ok {
		doc.LineItems = make([]map[string]any, len(items))
		for i, item := range items {
			if m, ok := item.(map[string]any); ok {
				doc.LineItems[i] = m
			} else {
				doc.LineItems[i] = map[string]any{}
			}
		}
	}
	return doc, nil
}
