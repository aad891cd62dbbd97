package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"quark/internal/config"
	"quark/internal/logging"
	"quark/internal/services"
)

// Client talks to the Quark Drive API using an authenticated session cookie.
// It is not safe for concurrent use; the pipeline issues one call at a time.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cookie     string
	userAgent  string
	logger     *slog.Logger
}

// NewClient builds a drive client from application configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "drive client", "configuration is required", nil)
	}
	cookie := strings.TrimSpace(cfg.Drive.Cookie)
	if cookie == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "drive client", "cookie is missing or empty", nil)
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout()},
		baseURL:    strings.TrimRight(cfg.Drive.BaseURL, "/"),
		cookie:     cookie,
		userAgent:  cfg.Drive.UserAgent,
		logger:     logging.NewComponentLogger(logger, "drive"),
	}, nil
}

// List returns the children of the given directory node.
func (c *Client) List(ctx context.Context, parentID string) ([]Node, error) {
	params := url.Values{}
	params.Set("pdir_fid", parentID)
	params.Set("_page", "1")
	params.Set("_size", "500")
	params.Set("_sort", "file_type:asc,updated_at:desc")

	var out listResponse
	if err := c.call(ctx, http.MethodGet, "/file/sort", params, nil, &out); err != nil {
		return nil, err
	}
	return out.Data.List, nil
}

// Move relocates the given nodes under a new parent directory in one call.
func (c *Client) Move(ctx context.Context, ids []string, destID string) error {
	payload := moveRequest{
		ActionType:  1,
		ToPdirFid:   destID,
		Filelist:    ids,
		ExcludeFids: []string{},
	}
	return c.call(ctx, http.MethodPost, "/file/move", nil, payload, nil)
}

// Delete removes the given nodes.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	payload := deleteRequest{
		ActionType:  2,
		Filelist:    ids,
		ExcludeFids: []string{},
	}
	return c.call(ctx, http.MethodPost, "/file/delete", nil, payload, nil)
}

// Extract asks the service to unpack an archive into the destination
// directory. No password, rename on conflict, single-pass selection.
func (c *Client) Extract(ctx context.Context, archiveID, destID string) error {
	payload := extractRequest{
		Fid:          archiveID,
		Password:     "",
		SelectMode:   2,
		PathNoList:   []int{1},
		CurrPathNo:   0,
		RememberPwd:  false,
		ConflictMode: 3,
		SuffixType:   0,
		ToPdirFid:    destID,
	}
	return c.call(ctx, http.MethodPost, "/archive/unarchive", nil, payload, nil)
}

func (c *Client) call(ctx context.Context, method, path string, params url.Values, payload, out any) error {
	query := url.Values{}
	query.Set("pr", "ucpro")
	query.Set("fr", "pc")
	query.Set("uc_param_str", "")
	for key, values := range params {
		for _, value := range values {
			query.Set(key, value)
		}
	}
	fullURL := c.baseURL + path + "?" + query.Encode()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &RemoteError{Kind: KindTransport, Op: path, Cause: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return &RemoteError{Kind: KindTransport, Op: path, Cause: err}
	}
	req.Header.Set("Cookie", c.cookie)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Origin", "https://pan.quark.cn")
	req.Header.Set("Referer", "https://pan.quark.cn/")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}

	c.logger.Debug("drive request", logging.String("method", method), logging.String("url", c.baseURL+path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &RemoteError{Kind: KindTransport, Op: path, Cause: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("drive response", logging.String("url", c.baseURL+path), logging.Int("status", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &RemoteError{Kind: KindTransport, Op: path, Cause: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{
			Kind:       KindTransport,
			Op:         path,
			HTTPStatus: resp.StatusCode,
			Message:    snippet(raw),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &RemoteError{Kind: KindTransport, Op: path, HTTPStatus: resp.StatusCode, Cause: fmt.Errorf("decode response: %w", err)}
	}
	if env.Code != 0 && env.Status != 0 {
		message := env.Message
		if message == "" {
			message = snippet(raw)
		}
		return &RemoteError{
			Kind:       KindBusiness,
			Op:         path,
			HTTPStatus: resp.StatusCode,
			Code:       env.Code,
			Message:    message,
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &RemoteError{Kind: KindTransport, Op: path, HTTPStatus: resp.StatusCode, Cause: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func snippet(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > 256 {
		text = text[:256]
	}
	return text
}
