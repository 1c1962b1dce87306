// Package api uploads exported scene artifacts to an osm3d collection
// endpoint. Uploads are best effort: the batch keeps its local artifact
// whether or not the endpoint accepts the copy.
package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/osm3d/pitchmark/pkg/core"
)

const (
	healthPath = "/healthcheck"
	uploadPath = "/api/v1/scenes/add"
)

// Client talks to one collection endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New returns a client for the endpoint at baseURL.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck reports whether the endpoint answers at all. Callers skip
// the upload when it fails.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + healthPath)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Upload streams the artifact at filePath as a multipart form. The form
// goes through a pipe so gzipped scenes never buffer fully in memory.
func (c *Client) Upload(filePath string, meta core.UploadMetadata) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	errCh := make(chan error, 1)
	go func() {
		err := writeSceneForm(form, file, c.apiKey, meta)
		_ = form.Close()
		_ = pw.Close()
		errCh <- err
	}()

	req, err := http.NewRequest(http.MethodPost, c.baseURL+uploadPath, pr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if writeErr := <-errCh; writeErr != nil {
		return writeErr
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload returned status %d", resp.StatusCode)
	}
	return nil
}

// writeSceneForm writes the metadata fields followed by the artifact
// itself. Field order matches what the endpoint documents.
func writeSceneForm(form *multipart.Writer, file *os.File, apiKey string, meta core.UploadMetadata) error {
	name := filepath.Base(file.Name())

	_ = form.WriteField("secret", apiKey)
	_ = form.WriteField("filename", name)
	_ = form.WriteField("source", meta.Source)
	_ = form.WriteField("tag", meta.Tag)
	_ = form.WriteField("areaCount", strconv.Itoa(meta.AreaCount))
	_ = form.WriteField("durationSec", fmt.Sprintf("%f", meta.DurationSec))

	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return nil
}
