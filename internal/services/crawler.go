package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newsboard/internal/utils"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const (
	maxPageBytes         = 5 << 20
	previewDescriptionLn = 300
)

// Preview 从链接页面提取的摘要信息
type Preview struct {
	Title        string
	Description  string
	ThumbnailURL string
}

// CrawlerService 抓取文章链接，补全描述和缩略图
type CrawlerService struct {
	client    *http.Client
	sanitizer *bluemonday.Policy
}

// NewCrawlerService timeout 为 0 时使用 15 秒
func NewCrawlerService(timeout time.Duration) *CrawlerService {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CrawlerService{
		client: &http.Client{
			Timeout: timeout,
		},
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// FetchPreview 抓取页面：优先使用 og/meta 标签，缺失时从正文提取
func (s *CrawlerService) FetchPreview(ctx context.Context, url string) (*Preview, error) {
	body, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	preview := &Preview{}
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		preview.Title = firstNonEmpty(
			metaContent(doc, "og:title"),
			strings.TrimSpace(doc.Find("title").First().Text()),
		)
		preview.Description = firstNonEmpty(
			metaContent(doc, "og:description"),
			metaContent(doc, "description"),
		)
		preview.ThumbnailURL = metaContent(doc, "og:image")
	}

	if preview.Description == "" || preview.ThumbnailURL == "" {
		article, err := readability.FromReader(bytes.NewReader(body), nil)
		if err == nil {
			// 清洗 HTML（移除潜在的恶意内容）
			content := s.sanitizer.Sanitize(article.Content)
			if preview.Description == "" {
				preview.Description = utils.ExtractText(content, previewDescriptionLn)
			}
			if preview.ThumbnailURL == "" {
				preview.ThumbnailURL = utils.FirstImage(content)
			}
		}
	}

	preview.Title = utils.StripTags(preview.Title)
	preview.Description = utils.StripTags(preview.Description)
	if !utils.ValidHTTPURL(preview.ThumbnailURL) {
		preview.ThumbnailURL = ""
	}
	return preview, nil
}

func (s *CrawlerService) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	// 设置 User-Agent 模拟浏览器
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP 状态码: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return body, nil
}

func metaContent(doc *goquery.Document, name string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property="%s"], meta[name="%s"]`, name, name)).First()
	v, _ := sel.Attr("content")
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
