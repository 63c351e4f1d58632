package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Image host (imgbb style): a multipart upload of base64 image data that
// answers with a permanently hosted URL. Everything the assistant or the user
// attaches ends up here; gateway URLs are ephemeral.

const IMAGE_HOST_DEFAULT_BASE_URL = "https://api.imgbb.com"
const IMAGE_HOST_DEFAULT_DOMAIN = "ibb.co"

var imageHostClient = &http.Client{Timeout: 60 * time.Second}

func imageHostBaseURL() string {
	return getenv("IMGBB_BASE_URL", IMAGE_HOST_DEFAULT_BASE_URL)
}

// UploadImage sends base64 encoded image bytes to the host and returns the
// hosted URL.
func UploadImage(ctx context.Context, b64 string) (string, error) {
	key := getenv("IMGBB_API_KEY", "")
	if key == "" {
		return "", fmt.Errorf("IMGBB_API_KEY not set")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("image", b64); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	endpoint := imageHostBaseURL() + "/1/upload?key=" + url.QueryEscape(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := imageHostClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Success bool `json:"success"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("image host: bad response: %s", string(raw))
	}
	if !parsed.Success || parsed.Data.URL == "" {
		return "", fmt.Errorf("image host: upload rejected: %s", string(raw))
	}
	return parsed.Data.URL, nil
}

// IsHostedURL reports whether the URL already lives on the image host, so the
// re-host worker can tell permanent URLs from leaked gateway ones.
func IsHostedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	domain := getenv("IMGBB_DOMAIN", IMAGE_HOST_DEFAULT_DOMAIN)
	return u.Host == domain || strings.HasSuffix(u.Host, "."+domain)
}
