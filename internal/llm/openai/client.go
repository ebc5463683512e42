package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/extract"
)

// message content parts for the vision chat/completions payload
type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// Extract implements extract.Extractor over an OpenAI-compatible
// chat/completions endpoint with an image attachment. Rate-limit responses
// come back as extract.TransientError so the orchestrator retries them;
// malformed or schema-violating payloads are fatal for the page.
func (c *Client) Extract(ctx context.Context, req extract.Request) (*extract.StatementPayload, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"page", req.PageNum,
		"type_hint", string(req.StatementType),
		"text_len", len(req.RawText),
		"image_bytes", len(req.Image),
	)

	schema := extract.BuildStatementJSONSchema()
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(req.Image)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": buildSystemPrompt(req) + "\n\nJSON Schema:\n" + mustJSON(schema)},
			{"role": "user", "content": []contentPart{
				{Type: "text", Text: buildUserPrompt(req)},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			}},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "page", req.PageNum, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "page", req.PageNum, "error", err, "raw_bytes", len(raw),
		)
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices", "req_id", rid, "page", req.PageNum)
		return nil, fmt.Errorf("no choices in response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	if err := extract.ValidateJSONAgainstSchema(schema, []byte(content)); err != nil {
		c.logger.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "page", req.PageNum, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var payload extract.StatementPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"page", req.PageNum,
		"type", payload.StatementType,
		"categories", len(payload.LineItems),
		"confidence", payload.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &payload, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("llm response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("llm status %d: %s", resp.StatusCode, truncate(buf.String(), 512))
		if isRateLimited(resp.StatusCode, buf.String()) {
			return nil, extract.Transient(err)
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

// isRateLimited recognizes the rate-limit class of provider failures.
func isRateLimited(status int, body string) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	lower := strings.ToLower(body)
	return strings.Contains(lower, "too many requests") || strings.Contains(lower, "rate limit")
}

func buildSystemPrompt(req extract.Request) string {
	parts := []string{
		"You are a financial statement transcriber. Return ONLY JSON that matches the JSON Schema provided.",
		"The image is one page of a scanned financial report; the raw OCR text is included as a cross-check.",
		"Statement type hint for this page: " + string(req.StatementType) + ".",
		"Group line items as category -> field -> {value, confidence, years}.",
		"Field names are lower_snake_case (e.g. total_assets, net_income).",
		"Put per-year comparative columns under 'years' keyed by the year label; 'value' is the most recent column.",
		"Attach a 0..1 confidence to every line item and to the page as a whole.",
		"Never output null. If a figure is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

func buildUserPrompt(req extract.Request) string {
	var b strings.Builder
	b.WriteString("Page number: ")
	fmt.Fprintf(&b, "%d", req.PageNum)
	b.WriteString("\n\nOCR text (first ~3k chars):\n")
	if len(req.RawText) > 3000 {
		b.WriteString(req.RawText[:3000])
	} else {
		b.WriteString(req.RawText)
	}
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
