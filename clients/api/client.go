// Package api is the HTTP client for the chat and diagram backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dohr-michael/stagewise/internal/config"
	"github.com/dohr-michael/stagewise/internal/stages"
)

// Diagram responses carry several base64 PNGs.
const maxResponseBytes = 64 << 20

const imageMIME = "image/png"

type chatRequest struct {
	Token string `json:"token"`
	Text  string `json:"text"`
}

// Pointer fields tell an absent or null field apart from an empty one.
type chatResponse struct {
	Text *string `json:"text"`
}

type diagramRequest struct {
	Token string   `json:"token"`
	Texts []string `json:"texts"`
}

type diagramResponse struct {
	Images *[]string `json:"images"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client sends one request per turn. It never retries and never mutates
// the stage context it is given.
type Client struct {
	baseURL     string
	chatPath    string
	diagramPath string
	http        *http.Client
}

// New creates a client for cfg. When hc is nil a client with cfg.Timeout is used.
func New(cfg config.BackendConfig, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout.Duration()}
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		chatPath:    cfg.ChatPath,
		diagramPath: cfg.DiagramPath,
		http:        hc,
	}
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Run submits text for the stage described by sc.
func (c *Client) Run(ctx context.Context, text string, sc stages.Context) (Reply, error) {
	if strings.TrimSpace(sc.Token) == "" {
		return nil, ErrAuth
	}
	if strings.TrimSpace(text) == "" {
		return nil, validationf("message text is empty")
	}

	switch sc.Mode {
	case stages.ModeDiagram:
		return c.runDiagram(ctx, text, sc)
	case stages.ModeText:
		return c.runChat(ctx, text, sc)
	default:
		return nil, validationf("unknown mode %q", sc.Mode)
	}
}

func (c *Client) runChat(ctx context.Context, text string, sc stages.Context) (Reply, error) {
	if sc.AgentID <= 0 {
		return nil, validationf("stage %d has no agent id", sc.Index)
	}

	path := strings.ReplaceAll(c.chatPath, "{agent_id}", strconv.Itoa(sc.AgentID))
	var out chatResponse
	if err := c.post(ctx, path, chatRequest{Token: sc.Token, Text: text}, &out); err != nil {
		return nil, err
	}
	if out.Text == nil {
		return nil, fmt.Errorf("%w: response has no text field", ErrProtocol)
	}
	return TextReply{Text: *out.Text}, nil
}

func (c *Client) runDiagram(ctx context.Context, text string, sc stages.Context) (Reply, error) {
	texts := SplitDiagramRequests(text)
	if len(texts) == 0 {
		return nil, validationf("no diagram kinds in %q", text)
	}

	var out diagramResponse
	if err := c.post(ctx, c.diagramPath, diagramRequest{Token: sc.Token, Texts: texts}, &out); err != nil {
		return nil, err
	}

	if out.Images == nil {
		return nil, fmt.Errorf("%w: response has no images field", ErrProtocol)
	}

	images := make([]Image, 0, len(*out.Images))
	for _, b64 := range *out.Images {
		images = append(images, Image{Base64: b64, MIME: imageMIME})
	}
	return ImageSetReply{Images: images}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	slog.Debug("backend request", "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return transportErr(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportErr(ctx, err)
	}
	// The caller gave up while the body was in flight: drop it.
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	}
	slog.Debug("backend response", "path", path, "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return backendError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return nil
}

func transportErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func backendError(status int, data []byte) error {
	msg := genericErrorMessage
	var body errorResponse
	if json.Unmarshal(data, &body) == nil && strings.TrimSpace(body.Error) != "" {
		msg = body.Error
	}
	return &BackendError{Status: status, Message: msg}
}
