// Package api uploads exported runs to a run viewer.
package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const uploadPath = "/api/v1/runs/add"

// UploadMetadata describes an exported run for the viewer's run list.
type UploadMetadata struct {
	RunName  string
	Seed     int64
	Duration float64 // simulated seconds
	Distance float64
	Tag      string
}

func (m UploadMetadata) fields() [][2]string {
	return [][2]string{
		{"runName", m.RunName},
		{"seed", strconv.FormatInt(m.Seed, 10)},
		{"duration", strconv.FormatFloat(m.Duration, 'f', 3, 64)},
		{"distance", strconv.FormatFloat(m.Distance, 'f', 3, 64)},
		{"tag", m.Tag},
	}
}

// Client talks to the run viewer server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck reports whether the viewer answers 200 on /healthcheck.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthcheck", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, "healthcheck")
}

// Upload streams an exported run file as a multipart form. The body is
// produced while the request is sent, so large exports are never buffered.
func (c *Client) Upload(ctx context.Context, filePath string, meta UploadMetadata) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	name := filepath.Base(filePath)
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(form, file, name, c.apiKey, meta))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	return c.do(req, "upload")
}

func writeForm(form *multipart.Writer, file io.Reader, name, secret string, meta UploadMetadata) error {
	if err := form.WriteField("secret", secret); err != nil {
		return err
	}
	if err := form.WriteField("filename", name); err != nil {
		return err
	}
	for _, f := range meta.fields() {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return form.Close()
}

// do sends req and turns any non-200 answer into an error carrying the
// start of the response body.
func (c *Client) do(req *http.Request, what string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", what, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("%s returned status %d: %s", what, resp.StatusCode, msg)
	}
	return fmt.Errorf("%s returned status %d", what, resp.StatusCode)
}
