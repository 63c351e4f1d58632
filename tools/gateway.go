package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// The gateway is the only upstream that ever sees the API credential. All
// request shaping for the three model families lives here.

const GATEWAY_DEFAULT_BASE_URL = "https://api.proxyapi.ru/openai/v1"

func GatewayBaseURL() string {
	return getenv("GATEWAY_BASE_URL", GATEWAY_DEFAULT_BASE_URL)
}

func gatewayKey() (string, error) {
	key := getenv("PROXYAPI_KEY", "")
	if key == "" {
		return "", fmt.Errorf("PROXYAPI_KEY not set")
	}
	return key, nil
}

var gatewayClient = &http.Client{Timeout: 120 * time.Second}

// GatewayError carries the upstream status and payload so handlers can
// forward them as {error, details} without retrying.
type GatewayError struct {
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Status, e.Body)
}

// ChatMessage is one turn of the outbound history. Content is either a plain
// string or a []ContentPart for vision models.
type ChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// ImageResult is one entry of the gateway's images "data" array. Exactly one
// of URL / B64JSON is set depending on the model.
type ImageResult struct {
	URL     string `json:"url,omitempty"`
	B64JSON string `json:"b64_json,omitempty"`
}

// ChatCompletion posts the message list to /chat/completions and returns the
// assistant content. Used for both plain text and vision shaped histories.
func ChatCompletion(ctx context.Context, model string, messages []ChatMessage, temperature *float64) (string, error) {
	body := map[string]any{
		"model":    model,
		"messages": messages,
	}
	if temperature != nil {
		body["temperature"] = *temperature
	}

	raw, err := postJSON(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty response from model (no choices)")
	}
	return parsed.Choices[0].Message.Content, nil
}

// GenerateImage posts {model, prompt, ...settings} to /images/generations.
func GenerateImage(ctx context.Context, model, prompt string, settings map[string]string) (ImageResult, error) {
	body := map[string]any{
		"model":  model,
		"prompt": prompt,
	}
	for k, v := range settings {
		body[k] = v
	}

	raw, err := postJSON(ctx, "/images/generations", body)
	if err != nil {
		return ImageResult{}, err
	}
	return firstImage(raw)
}

// GenerateImageRaw is the passthrough used by /api/image-generation: the
// gateway response goes back to the caller untouched.
func GenerateImageRaw(ctx context.Context, model, prompt string) (json.RawMessage, error) {
	return postJSON(ctx, "/images/generations", map[string]any{
		"model":  model,
		"prompt": prompt,
	})
}

// EditImage posts a multipart edit request: the prompt, the dialog settings
// spread as form fields and every reference image as an image[] part.
func EditImage(ctx context.Context, model, prompt string, settings map[string]string, refs [][]byte) (ImageResult, error) {
	key, err := gatewayKey()
	if err != nil {
		return ImageResult{}, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", model); err != nil {
		return ImageResult{}, err
	}
	if err := writer.WriteField("prompt", prompt); err != nil {
		return ImageResult{}, err
	}
	for k, v := range settings {
		if err := writer.WriteField(k, v); err != nil {
			return ImageResult{}, err
		}
	}
	for i, ref := range refs {
		// header explícito: o gateway espera partes image/png, não octet-stream
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image[]"; filename="ref%d.png"`, i))
		h.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(h)
		if err != nil {
			return ImageResult{}, err
		}
		if _, err := part.Write(ref); err != nil {
			return ImageResult{}, err
		}
	}
	if err := writer.Close(); err != nil {
		return ImageResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, GatewayBaseURL()+"/images/edits", body)
	if err != nil {
		return ImageResult{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+key)

	raw, err := doGateway(req)
	if err != nil {
		return ImageResult{}, err
	}
	return firstImage(raw)
}

// FetchImage downloads arbitrary image bytes server side. Shared by the edit
// path (reference downloads), /api/fetch-image-base64 and the re-host worker.
func FetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := gatewayClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func postJSON(ctx context.Context, path string, body map[string]any) (json.RawMessage, error) {
	key, err := gatewayKey()
	if err != nil {
		return nil, err
	}

	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, GatewayBaseURL()+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	return doGateway(req)
}

func doGateway(req *http.Request) (json.RawMessage, error) {
	resp, err := gatewayClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, &GatewayError{Status: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func firstImage(raw json.RawMessage) (ImageResult, error) {
	var parsed struct {
		Data []ImageResult `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ImageResult{}, err
	}
	if len(parsed.Data) == 0 {
		return ImageResult{}, fmt.Errorf("empty image response from gateway")
	}
	return parsed.Data[0], nil
}
