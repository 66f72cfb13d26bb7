// Package platform 实现上游凭证平台 API 的 HTTP 客户端
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sharemeal/console/internal/application/domain"
	"github.com/sharemeal/console/pkg/cache"
	"github.com/sharemeal/console/pkg/metrics"
)

// Config 客户端配置
type Config struct {
	// API 基础地址
	BaseURL string
	// 单次请求超时
	Timeout time.Duration
	// 国家目录缓存，可为 nil
	Cache *cache.RedisCache
	// 国家目录缓存时间
	CountryCacheTTL time.Duration
	// 指标，可为 nil
	Metrics *metrics.Metrics
}

// Client 上游平台 HTTP 客户端，实现 domain.Gateway
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.RedisCache
	countryTTL time.Duration
	metrics    *metrics.Metrics
}

// countryCacheKey 国家目录缓存 key
const countryCacheKey = "console:countries"

// NewClient 创建平台客户端
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      cfg.Cache,
		countryTTL: cfg.CountryCacheTTL,
		metrics:    cfg.Metrics,
	}
}

var _ domain.Gateway = (*Client)(nil)

// ListPersonalApplications 列出调用者本人提交的申请
func (c *Client) ListPersonalApplications(ctx context.Context, token string, page, limit int) (*domain.ApplicationList, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "list_personal", "/api/v1/applications/personal", token, query)
	if err != nil {
		return nil, err
	}
	return domain.DecodeApplicationList(body)
}

// ListSubmittedApplications 列出调用者可审阅的申请
func (c *Client) ListSubmittedApplications(ctx context.Context, token string, page, limit int, countryCode, filterType string) (*domain.ApplicationList, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	if countryCode != "" {
		query.Set("countryCode", countryCode)
	}
	if filterType != "" {
		query.Set("filterType", filterType)
	}

	body, err := c.get(ctx, "list_submitted", "/api/v1/applications/submitted", token, query)
	if err != nil {
		return nil, err
	}
	return domain.DecodeApplicationList(body)
}

// GetApplicationDetail 获取申请详情
func (c *Client) GetApplicationDetail(ctx context.Context, token, id string) (*domain.ApplicationDetail, error) {
	body, err := c.get(ctx, "get_detail", "/api/v1/applications/"+url.PathEscape(id), token, nil)
	if err != nil {
		return nil, err
	}
	return domain.DecodeApplicationDetail(body)
}

// SubmitApplication 以 multipart 编码提交一次申请：
// metadata 字段承载 JSON 元数据块，附件按 fileType 标签作为表单字段名
func (c *Client) SubmitApplication(ctx context.Context, token string, sub *domain.Submission) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	metadata, err := json.Marshal(sub.Metadata)
	if err != nil {
		return fmt.Errorf("encode submission metadata: %w", err)
	}
	if err := writer.WriteField("metadata", string(metadata)); err != nil {
		return fmt.Errorf("write metadata field: %w", err)
	}

	for fileType, file := range sub.Files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, string(fileType), file.Name))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create file part %s: %w", fileType, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return fmt.Errorf("write file part %s: %w", fileType, err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	path := "/api/v1/applications/" + strings.ToLower(string(sub.Kind))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	_, err = c.do(req, "submit")
	return err
}

// ApproveApplication 批准申请，返回服务端消息
func (c *Client) ApproveApplication(ctx context.Context, token, id string) (string, error) {
	return c.reviewAction(ctx, token, id, "approve")
}

// RejectApplication 驳回申请，返回服务端消息
func (c *Client) RejectApplication(ctx context.Context, token, id string) (string, error) {
	return c.reviewAction(ctx, token, id, "reject")
}

func (c *Client) reviewAction(ctx context.Context, token, id, action string) (string, error) {
	path := "/api/v1/applications/" + url.PathEscape(id) + "/" + action
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("create %s request: %w", action, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	body, err := c.do(req, action)
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", nil
	}

	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", domain.NewDecodeError("reviewResult", err.Error())
	}
	return parsed.Message, nil
}

// ListSupportedCountries 获取支持国家目录，Redis 缓存命中时不回源。
// 缓存读写失败只影响性能，不影响正确性。
func (c *Client) ListSupportedCountries(ctx context.Context) ([]domain.Country, error) {
	if c.cache != nil {
		var cached []domain.Country
		if hit, err := c.cache.GetJSON(ctx, countryCacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	body, err := c.get(ctx, "list_countries", "/api/v1/countries", "", nil)
	if err != nil {
		return nil, err
	}

	countries, err := domain.DecodeCountries(body)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		_ = c.cache.SetJSON(ctx, countryCacheKey, countries, c.countryTTL)
	}
	return countries, nil
}

func (c *Client) get(ctx context.Context, operation, path, token string, query url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.do(req, operation)
}

// do 执行请求并读取响应体。非 2xx 响应解析为结构化错误 {code, message}，
// 无法解析时以 HTTP 状态兜底。
func (c *Client) do(req *http.Request, operation string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(operation, "network_error", start)
		return nil, fmt.Errorf("%s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(operation, "read_error", start)
		return nil, fmt.Errorf("read %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.observe(operation, "upstream_error", start)
		return nil, structuredError(resp.StatusCode, body)
	}

	c.observe(operation, "ok", start)
	return body, nil
}

func (c *Client) observe(operation, outcome string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.PlatformRequestsTotal.WithLabelValues(operation, outcome).Inc()
	c.metrics.PlatformRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func structuredError(status int, body []byte) error {
	var se domain.StructuredError
	if err := json.Unmarshal(body, &se); err == nil && se.Code != "" {
		return &se
	}

	message := strings.TrimSpace(string(body))
	if message == "" {
		message = http.StatusText(status)
	}
	return &domain.StructuredError{
		Code:    "HTTP_" + strconv.Itoa(status),
		Message: message,
	}
}
