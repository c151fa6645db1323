package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
)

// HTTPSink archives artifacts with an HTTP PUT to an object-store style
// endpoint (base URL + object name).
type HTTPSink struct {
	client  *resty.Client
	baseURL string
	prefix  string
}

// NewHTTPSink creates the sink. prefix is prepended to the object name.
func NewHTTPSink(client *resty.Client, baseURL, prefix string) *HTTPSink {
	return &HTTPSink{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		prefix:  prefix,
	}
}

// Put uploads the file. The remote ID is the object URL.
func (s *HTTPSink) Put(ctx context.Context, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}

	objectURL := fmt.Sprintf("%s/%s%s", s.baseURL, s.prefix, filepath.Base(localPath))
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(data).
		Put(objectURL)
	if err != nil {
		return "", fmt.Errorf("upload artifact: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("upload artifact: status %s", resp.Status())
	}
	return objectURL, nil
}
