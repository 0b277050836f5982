// Package gemini is the HTTP client for the generative gateway: one
// generateContent call per operation, JSON in, JSON or inline PCM out.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wozobuyshop/Kidstalk3/internal/config"
	"github.com/wozobuyshop/Kidstalk3/internal/session"
)

// Client talks to the gateway's generateContent endpoint. The credential is
// checked before every call so a missing key never produces network traffic.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
	model      string
	ttsModel   string
	credential config.Credential
	dump       io.Writer
}

// Options carries the non-config collaborators for a Client.
type Options struct {
	Logger     *slog.Logger
	Credential config.Credential
	// HTTPClient overrides the default client; used in tests. When nil, a
	// client with the configured gateway timeout is built.
	HTTPClient *http.Client
	// DumpSink, when set, receives each raw response body as one JSON line.
	DumpSink io.Writer
}

func NewClient(cfg config.GatewayConfig, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		model:      cfg.Model,
		ttsModel:   cfg.TTSModel,
		credential: opts.Credential,
		dump:       opts.DumpSink,
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMIMEType   string        `json:"responseMimeType,omitempty"`
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content struct {
		Parts []responsePart `json:"parts"`
	} `json:"content"`
}

type responsePart struct {
	Text       string      `json:"text"`
	InlineData *inlineData `json:"inlineData"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// generate runs one generateContent round against the given model.
func (c *Client) generate(ctx context.Context, op string, model string, req generateRequest) (generateResponse, error) {
	if !c.credential.Present() {
		return generateResponse{}, fmt.Errorf("%s: %w", op, session.ErrMissingCredential)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return generateResponse{}, fmt.Errorf("%s: encode request: %w", op, err)
	}

	requestID := uuid.NewString()
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return generateResponse{}, fmt.Errorf("%s: build request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.credential.Key())

	c.logger.Debug("gateway request", "id", requestID, "op", op, "model", model, "bytes", len(body))
	started := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return generateResponse{}, fmt.Errorf("%s: gateway call: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return generateResponse{}, fmt.Errorf("%s: read gateway response: %w", op, err)
	}
	c.dumpExchange(requestID, op, raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope apiErrorEnvelope
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
			return generateResponse{}, fmt.Errorf("%s: gateway status %d (%s): %s",
				op, resp.StatusCode, envelope.Error.Status, envelope.Error.Message)
		}
		return generateResponse{}, fmt.Errorf("%s: gateway status %d", op, resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return generateResponse{}, fmt.Errorf("%s: decode gateway response: %w", op, err)
	}

	c.logger.Debug("gateway response", "id", requestID, "op", op,
		"status", resp.StatusCode, "elapsed_ms", time.Since(started).Milliseconds())
	return decoded, nil
}

// dumpExchange writes one raw response body to the debug sink when enabled.
func (c *Client) dumpExchange(requestID, op string, raw []byte) {
	if c.dump == nil {
		return
	}
	line, err := json.Marshal(map[string]any{
		"id":       requestID,
		"op":       op,
		"at":       time.Now().Format(time.RFC3339Nano),
		"response": json.RawMessage(raw),
	})
	if err != nil {
		return
	}
	if _, err := c.dump.Write(append(line, '\n')); err != nil {
		c.logger.Warn("write gateway dump", "error", err)
	}
}

// firstText returns the first non-empty text part of the first candidate.
func firstText(resp generateResponse) (string, bool) {
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if strings.TrimSpace(p.Text) != "" {
				return p.Text, true
			}
		}
	}
	return "", false
}

// firstAudio returns the first inline audio payload of the first candidate.
func firstAudio(resp generateResponse) (string, bool) {
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				return p.InlineData.Data, true
			}
		}
	}
	return "", false
}

// stripCodeFence removes a surrounding markdown code fence. The gateway is
// asked for bare JSON but occasionally wraps it anyway.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line (```json).
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
