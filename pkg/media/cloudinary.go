package media

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Cloudinary talks to the Cloudinary upload and delivery APIs directly.
// Uploads are signed with the documented scheme: SHA-1 over the sorted
// request parameters followed by the API secret.
type Cloudinary struct {
	cloudName string
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
}

type UploadResult struct {
	PublicID  string  `json:"public_id"`
	SecureURL string  `json:"secure_url"`
	Bytes     int64   `json:"bytes"`
	Duration  float64 `json:"duration"`
}

type uploadError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewCloudinary(cloudName, apiKey, apiSecret string) *Cloudinary {
	client := &http.Client{
		Timeout: 5 * time.Minute,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			MaxConnsPerHost:     100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Cloudinary{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   "https://api.cloudinary.com/v1_1",
		client:    client,
	}
}

func (c *Cloudinary) UploadImage(ctx context.Context, src io.Reader, filename, folder string) (*UploadResult, error) {
	return c.upload(ctx, "image", src, filename, folder)
}

func (c *Cloudinary) UploadVideo(ctx context.Context, src io.Reader, filename, folder string) (*UploadResult, error) {
	return c.upload(ctx, "video", src, filename, folder)
}

func (c *Cloudinary) upload(ctx context.Context, resourceType string, src io.Reader, filename, folder string) (*UploadResult, error) {
	params := map[string]string{
		"folder":    folder,
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
	}
	params["signature"] = c.sign(params)
	params["api_key"] = c.apiKey

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range params {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/upload", c.baseURL, c.cloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr uploadError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("cloudinary upload failed: %s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("cloudinary upload failed with status %d", resp.StatusCode)
	}

	var result UploadResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &result, nil
}

// Destroy removes an uploaded asset. resourceType is "image" or "video".
func (c *Cloudinary) Destroy(ctx context.Context, publicID, resourceType string) error {
	params := map[string]string{
		"public_id": publicID,
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
	}
	params["signature"] = c.sign(params)
	params["api_key"] = c.apiKey

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/destroy", c.baseURL, c.cloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("destroy request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cloudinary destroy failed with status %d", resp.StatusCode)
	}
	return nil
}

// sign implements Cloudinary's request signing: parameters sorted by key,
// joined as key=value with &, then the API secret appended and SHA-1 hashed.
func (c *Cloudinary) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret))
	return hex.EncodeToString(sum[:])
}

func (c *Cloudinary) DeliveryURL(publicID string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s", c.cloudName, publicID)
}

// BackgroundReplaceURL builds a generative background replacement delivery
// URL for the given prompt.
func (c *Cloudinary) BackgroundReplaceURL(publicID, prompt string) string {
	effect := url.QueryEscape("prompt_" + prompt)
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/e_gen_background_replace:%s/%s.png",
		c.cloudName, effect, publicID)
}

// GenerativeReplaceURL swaps one object for another in the image.
func (c *Cloudinary) GenerativeReplaceURL(publicID, from, to string) string {
	effect := url.QueryEscape(fmt.Sprintf("from_%s;to_%s", from, to))
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/e_gen_replace:%s/%s.png",
		c.cloudName, effect, publicID)
}

// GenerativeFillURL pads the image out to width x height and fills the new
// canvas from the prompt.
func (c *Cloudinary) GenerativeFillURL(publicID, prompt string, width, height int) string {
	fill := url.QueryEscape("prompt_" + prompt)
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/b_gen_fill:%s,c_pad,h_%d,w_%d/%s.png",
		c.cloudName, fill, height, width, publicID)
}

func (c *Cloudinary) BackgroundRemovalURL(publicID string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/e_background_removal/%s.png",
		c.cloudName, publicID)
}
