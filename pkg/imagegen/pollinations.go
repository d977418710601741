package imagegen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://gen.pollinations.ai"
	DefaultModel   = "flux"

	maxImageBytes = 32 << 20
	maxErrorBytes = 64 << 10
)

// PollinationsClient generates images through the Pollinations HTTP API.
type PollinationsClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ Generator = (*PollinationsClient)(nil)

func NewPollinationsClient(baseURL, apiKey string, timeout time.Duration) *PollinationsClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &PollinationsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Generate issues GET {base}/image/{prompt}?model&width&height&seed=-1&enhance=false.
func (c *PollinationsClient) Generate(ctx context.Context, req Request) (Image, error) {
	params := url.Values{}
	params.Set("model", req.Model)
	params.Set("width", strconv.Itoa(req.Width))
	params.Set("height", strconv.Itoa(req.Height))
	params.Set("seed", "-1")
	params.Set("enhance", "false")

	endpoint := c.baseURL + "/image/" + url.PathEscape(req.Prompt) + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Image{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "*/*")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Image{}, fmt.Errorf("pollinations request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return Image{}, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return Image{}, fmt.Errorf("read image body: %w", err)
	}

	return Image{
		Data:        data,
		ContentType: strings.ToLower(resp.Header.Get("Content-Type")),
	}, nil
}
