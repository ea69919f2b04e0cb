package syncer

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
)

// Client 远端配置同步：GET/POST {base}/sync?pwd=xxx
// 应答统一信封 {success, data|error}
type Client struct {
	baseURL  string
	password string
	client   *http.Client
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// payload 远端存的配置文件结构
type payload struct {
	Version    string          `json:"version"`
	LastUpdate string          `json:"lastUpdate,omitempty"`
	Data       json.RawMessage `json:"data"`
}

func New(baseURL, password string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		password: password,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/sync?pwd=%s", c.baseURL, url.QueryEscape(c.password))
}

// Pull 拉取远端配置，返回各面板条目的 JSON；远端还没有配置时返回 nil
func (c *Client) Pull(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(), nil)
	if err != nil {
		return nil, err
	}
	env, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var p payload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return nil, fmt.Errorf("sync payload: %w", err)
	}
	if len(p.Data) == 0 || string(p.Data) == "null" || string(p.Data) == "{}" {
		return nil, nil
	}
	return p.Data, nil
}

// Push 把本地导出的配置整体上传
func (c *Client) Push(ctx context.Context, blob []byte) error {
	body, err := json.Marshal(payload{
		Version:    "1.0",
		LastUpdate: time.Now().UTC().Format(time.RFC3339),
		Data:       blob,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("sync response http %d: %w", resp.StatusCode, err)
	}
	if !env.Success {
		if env.Error != "" {
			return nil, errors.New(env.Error)
		}
		return nil, fmt.Errorf("sync failed with http %d", resp.StatusCode)
	}
	return &env, nil
}
