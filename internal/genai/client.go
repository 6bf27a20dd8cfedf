package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"moviegen/internal/infra"
	"moviegen/internal/infra/credentials"
	"moviegen/internal/media"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	VideoModel string
	HTTPClient *http.Client
	Logger     *infra.Logger
	// Keys, when set, is consulted on every call so a key supplied through
	// the key endpoint takes effect without restarting the process.
	Keys *credentials.Store
}

// Client is a lightweight facade over the Gemini REST API. It covers the two
// capabilities the movie pipeline needs: structured text generation for
// storyboards and the Veo long-running video operation with its polling and
// file download surface.
type Client struct {
	apiKey     string
	baseURL    string
	textModel  string
	videoModel string
	httpClient *http.Client
	logger     *infra.Logger
	keys       *credentials.Store
}

// Schema is the subset of the Gemini response-schema language the storyboard
// needs: enough to declare "array of string" with item documentation.
type Schema struct {
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	Items       *Schema `json:"items,omitempty"`
}

// VideoRequest describes one scene render submission.
type VideoRequest struct {
	Prompt          string
	Image           *media.Payload
	DurationSeconds int
	SampleCount     int
}

// Operation is the handle for an in-flight Veo render job.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *APIError       `json:"error,omitempty"`
	Response *videoOpPayload `json:"response,omitempty"`
}

// Videos returns the fetchable URIs of the operation's generated samples.
// Empty until the operation is done, and possibly empty even then: a
// completed job with no output is the caller's failure case.
func (o *Operation) Videos() []string {
	if o == nil || o.Response == nil {
		return nil
	}
	var uris []string
	for _, sample := range o.Response.GenerateVideoResponse.GeneratedSamples {
		if sample.Video.URI != "" {
			uris = append(uris, sample.Video.URI)
		}
	}
	return uris
}

// APIError is the decoded Gemini error envelope. Classification happens here,
// at the network boundary, so downstream code matches on the typed value
// instead of re-parsing message text.
type APIError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini error %d", e.Code)
	}
	return fmt.Sprintf("gemini error %d: %s", e.Code, e.Message)
}

// IsQuotaExceeded reports whether err is a backend quota/rate-limit error.
func IsQuotaExceeded(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts,omitempty"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type videoInstance struct {
	Prompt string       `json:"prompt"`
	Image  *inlineImage `json:"image,omitempty"`
}

type inlineImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type videoParameters struct {
	DurationSeconds int `json:"durationSeconds,omitempty"`
	SampleCount     int `json:"sampleCount,omitempty"`
}

type predictLongRunningRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoOpPayload struct {
	GenerateVideoResponse struct {
		GeneratedSamples []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		} `json:"generatedSamples"`
	} `json:"generateVideoResponse"`
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	textModel := opts.TextModel
	if textModel == "" {
		textModel = "gemini-2.5-flash"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo-2.0-generate-001"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		textModel:  textModel,
		videoModel: videoModel,
		httpClient: client,
		logger:     logger,
		keys:       opts.Keys,
	}
}

// TextModel returns the configured text model identifier.
func (c *Client) TextModel() string { return c.textModel }

// VideoModel returns the configured video model identifier.
func (c *Client) VideoModel() string { return c.videoModel }

func (c *Client) key() string {
	if c.keys != nil {
		if k := c.keys.GeminiAPIKey(); k != "" {
			return k
		}
	}
	return c.apiKey
}

// GenerateContent sends prompt to the text model, constraining the response
// to schema when one is given, and returns the first candidate's text.
func (c *Client) GenerateContent(ctx context.Context, prompt string, schema *Schema) (string, error) {
	payload := generateContentRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: prompt}},
		}},
		GenerationConfig: &generationConfig{
			CandidateCount: 1,
		},
	}
	if schema != nil {
		payload.GenerationConfig.ResponseMimeType = "application/json"
		payload.GenerationConfig.ResponseSchema = schema
	}

	var response generateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.textModel))
	if err := c.invoke(ctx, path, payload, &response); err != nil {
		return "", err
	}

	for _, candidate := range response.Candidates {
		for _, p := range candidate.Content.Parts {
			if strings.TrimSpace(p.Text) != "" {
				return p.Text, nil
			}
		}
	}
	return "", fmt.Errorf("no text content returned")
}

// GenerateVideos submits one scene render to the video model and returns the
// long-running operation handle. The reference image rides along only when
// the request carries one.
func (c *Client) GenerateVideos(ctx context.Context, req VideoRequest) (*Operation, error) {
	instance := videoInstance{Prompt: req.Prompt}
	if req.Image != nil {
		instance.Image = &inlineImage{
			BytesBase64Encoded: req.Image.Data,
			MimeType:           req.Image.MIME,
		}
	}
	payload := predictLongRunningRequest{
		Instances: []videoInstance{instance},
		Parameters: videoParameters{
			DurationSeconds: req.DurationSeconds,
			SampleCount:     req.SampleCount,
		},
	}

	var op Operation
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel))
	if err := c.invoke(ctx, path, payload, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		return nil, fmt.Errorf("video submit returned no operation name")
	}

	c.logger.Debug().
		Str("operation", op.Name).
		Str("model", c.videoModel).
		Msg("genai: video render submitted")

	return &op, nil
}

// GetOperation refreshes a render job's status.
func (c *Client) GetOperation(ctx context.Context, name string) (*Operation, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(name, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create operation request: %w", err)
	}
	c.appendKey(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get operation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.decodeError(resp)
	}

	var op Operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("decode operation: %w", err)
	}
	if op.Done && op.Error != nil {
		return nil, op.Error
	}
	return &op, nil
}

// Download fetches the media bytes behind a result URI. The URI alone is not
// authorized; the API key is appended as a query parameter.
func (c *Client) Download(ctx context.Context, uri string) ([]byte, string, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	c.appendKey(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", c.decodeError(resp)
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read media: %w", err)
	}
	return blob, resp.Header.Get("Content-Type"), nil
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.appendKey(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

func (c *Client) appendKey(req *http.Request) {
	if key := c.key(); key != "" {
		q := req.URL.Query()
		q.Set("key", key)
		req.URL.RawQuery = q.Encode()
	}
}

func (c *Client) decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var envelope errorEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && (envelope.Error.Code != 0 || envelope.Error.Message != "") {
		if envelope.Error.Code == 0 {
			envelope.Error.Code = resp.StatusCode
		}
		return &envelope.Error
	}

	apiErr := &APIError{Code: resp.StatusCode}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		apiErr.Message = msg
	}
	return apiErr
}
