package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/atinyakov/SymbolBoard/internal/models"
)

const (
	apiRecords   = "/api/records"
	apiBatchRead = "/api/batch/read"
)

// RemoteClient is a RemoteStore talking to the records API over HTTP.
type RemoteClient struct {
	client  *http.Client
	baseURL string
}

// NewRemoteClient creates a client for the API at baseURL. client usually
// comes from LoadClientCertificate.
func NewRemoteClient(client *http.Client, baseURL string) *RemoteClient {
	return &RemoteClient{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func recordPath(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return apiRecords + "/" + strings.Join(parts, "/")
}

func (c *RemoteClient) do(ctx context.Context, method, path, ownerID string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(models.OwnerHeader, ownerID)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// Read fetches the payload stored under key.
func (c *RemoteClient) Read(ctx context.Context, ownerID, key string) ([]byte, bool, error) {
	var rec models.RemoteRecord
	code, err := c.do(ctx, http.MethodGet, recordPath(key), ownerID, nil, &rec)
	if err != nil {
		return nil, false, err
	}
	if code == http.StatusNotFound {
		return nil, false, nil
	}
	return rec.Payload, true, nil
}

// Write stores payload under key.
func (c *RemoteClient) Write(ctx context.Context, ownerID, key string, payload []byte) error {
	_, err := c.do(ctx, http.MethodPut, recordPath(key), ownerID, models.PutRecordRequest{Payload: payload}, nil)
	return err
}

// Delete removes key. A missing key is not an error.
func (c *RemoteClient) Delete(ctx context.Context, ownerID, key string) error {
	_, err := c.do(ctx, http.MethodDelete, recordPath(key), ownerID, nil, nil)
	return err
}

// ReadMany fetches the existing records among keys in one request.
func (c *RemoteClient) ReadMany(ctx context.Context, ownerID string, keys []string) ([]models.RemoteRecord, error) {
	var recs []models.RemoteRecord
	if _, err := c.do(ctx, http.MethodPost, apiBatchRead, ownerID, models.BatchReadRequest{Keys: keys}, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// List returns the records whose key starts with prefix.
func (c *RemoteClient) List(ctx context.Context, ownerID, prefix string) ([]models.RemoteRecord, error) {
	var recs []models.RemoteRecord
	path := apiRecords + "?prefix=" + url.QueryEscape(prefix)
	if _, err := c.do(ctx, http.MethodGet, path, ownerID, nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// RemoteKeys lists the keys of the records whose key starts with prefix.
func (c *RemoteClient) RemoteKeys(ctx context.Context, ownerID, prefix string) ([]string, error) {
	recs, err := c.List(ctx, ownerID, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(recs))
	for i, r := range recs {
		keys[i] = r.Key
	}
	return keys, nil
}
