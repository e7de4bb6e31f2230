package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// 错误类型定义
var (
	ErrInvalidURL        = errors.New("invalid URL")
	ErrJSONMarshal       = errors.New("JSON marshal failed")
	ErrJSONUnmarshal     = errors.New("JSON unmarshal failed")
	ErrStatusNotOK       = errors.New("HTTP status code is not successful")
	ErrEmptyResponseBody = errors.New("response body is empty")
)

// StatusError 非 2xx 响应
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s, body: %s", ErrStatusNotOK, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatusNotOK }

// IsRetriableError 网络超时、连接失败和 5xx 可以重试
func IsRetriableError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Client 是 HTTP 客户端的主结构体
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Headers    map[string]string
	Retries    int
	Backoff    time.Duration
}

// Option 是配置客户端的函数类型
type Option func(*Client)

// WithTimeout 设置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.HTTPClient.Timeout = timeout
	}
}

// WithRetries 设置重试次数
func WithRetries(retries int) Option {
	return func(c *Client) {
		c.Retries = retries
	}
}

// WithBackoff 设置重试退避时间
func WithBackoff(backoff time.Duration) Option {
	return func(c *Client) {
		c.Backoff = backoff
	}
}

// WithHeader 设置默认请求头
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.Headers[key] = value
	}
}

// WithHTTPClient 使用自定义的HTTP客户端
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = client
	}
}

// NewClient 创建一个新的 HTTP 客户端
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Headers: make(map[string]string),
		Retries: 3,
		Backoff: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(client)
	}

	if _, exists := client.Headers["Content-Type"]; !exists {
		client.Headers["Content-Type"] = "application/json"
	}

	return client
}

// SetHeader 设置一个 HTTP 头
func (c *Client) SetHeader(key, value string) {
	c.Headers[key] = value
}

// encodeBody 请求体只编码一次，每次重试重新包装 reader
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case io.Reader:
		return io.ReadAll(b)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(ErrJSONMarshal, err.Error())
		}
		return data, nil
	}
}

// request 是发送 HTTP 请求的通用方法，5xx 和可重试的网络错误按指数退避重试
func (c *Client) request(ctx context.Context, method, path string, params url.Values, body any) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidURL, err.Error())
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	for i := 0; i <= c.Retries; i++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
		if err != nil {
			return nil, err
		}
		for key, value := range c.Headers {
			req.Header.Set(key, value)
		}
		// 传播链路信息
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

		resp, err = c.HTTPClient.Do(req)
		if err == nil && resp.StatusCode >= 500 {
			bodyBytes, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			err = &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
			resp = nil
		}
		if err == nil {
			return resp, nil
		}
		if !IsRetriableError(err) || i == c.Retries {
			return nil, err
		}

		backoffTime := c.Backoff * time.Duration(1<<i)
		select {
		case <-time.After(backoffTime):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return resp, nil
}

// Get 发送 GET 请求
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	return c.request(ctx, http.MethodGet, path, params, nil)
}

// Post 发送 POST 请求
func (c *Client) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.request(ctx, http.MethodPost, path, nil, body)
}

// Put 发送 PUT 请求
func (c *Client) Put(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.request(ctx, http.MethodPut, path, nil, body)
}

// Delete 发送 DELETE 请求
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.request(ctx, http.MethodDelete, path, nil, nil)
}

// GetBytes 发送GET请求并返回完整响应体
func (c *Client) GetBytes(ctx context.Context, path string, params url.Values) ([]byte, error) {
	resp, err := c.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}
	return bodyBytes, nil
}

// GetJSON 发送GET请求并解析JSON响应
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, response any) error {
	resp, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleJSONResponse(resp, response)
}

// PostJSON 发送POST请求并解析JSON响应
func (c *Client) PostJSON(ctx context.Context, path string, body, response any) error {
	resp, err := c.Post(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleJSONResponse(resp, response)
}

// handleJSONResponse 处理JSON响应
func (c *Client) handleJSONResponse(resp *http.Response, response any) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if len(bodyBytes) == 0 {
		if response == nil {
			return nil
		}
		return ErrEmptyResponseBody
	}

	if err := json.Unmarshal(bodyBytes, response); err != nil {
		return errors.Wrapf(ErrJSONUnmarshal, "%s, body: %s", err, string(bodyBytes))
	}

	return nil
}
