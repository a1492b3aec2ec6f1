// Package crawl implements the Crawler interface: fetch a URL, extract
// plain text from HTML or PDF, falling back to Document AI OCR when a
// PDF yields no extractable text layer.
package crawl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"github.com/signal-noise/workbench/internal/adapters"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

// OCRFallback is invoked when local PDF text extraction comes back empty
// — the Document AI adapter satisfies this when GCP credentials are
// configured; it is nil otherwise, and fetching a PDF with no text layer
// then fails with an error.
type OCRFallback interface {
	ExtractText(ctx context.Context, pdfBytes []byte) (string, error)
}

type Crawler struct {
	httpClient *http.Client
	ocr        OCRFallback
	log        *logger.Logger
}

func NewCrawler(ocr OCRFallback, log *logger.Logger) *Crawler {
	return &Crawler{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		ocr:        ocr,
		log:        log.With("adapter", "Crawler"),
	}
}

func (c *Crawler) FetchText(ctx context.Context, url string) (string, int, error) {
	var text string
	err := adapters.WithRetry(ctx, c.log, "crawler.fetch", func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			if resp.StatusCode < 500 {
				return &adapters.BadRequest{Err: fmt.Errorf("crawler: status %d fetching %s", resp.StatusCode, url)}
			}
			return fmt.Errorf("crawler: status %d fetching %s", resp.StatusCode, url)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		contentType := resp.Header.Get("Content-Type")
		switch {
		case strings.Contains(contentType, "pdf") || strings.HasSuffix(strings.ToLower(url), ".pdf"):
			text, err = c.extractPDF(ctx, body)
		default:
			text, err = extractHTML(body)
		}
		return err
	})
	if err != nil {
		return "", 0, err
	}
	text = collapseWhitespace(text)
	return text, len([]rune(text)), nil
}

// FetchArticle fetches url directly and extracts title/author/publish
// date plus the main content, for ingesting a single document outside
// the Source/feed workflow. Metadata extraction mirrors the original
// system's BeautifulSoup-based fallback chain: og:title/<title>/<h1>
// for the title, author meta tags or rel=author links for the author,
// and article:published_time/date meta or a <time datetime> for the
// date.
func (c *Crawler) FetchArticle(ctx context.Context, url string) (*adapters.Article, error) {
	var article *adapters.Article
	err := adapters.WithRetry(ctx, c.log, "crawler.fetch_article", func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			if resp.StatusCode < 500 {
				return &adapters.BadRequest{Err: fmt.Errorf("crawler: status %d fetching %s", resp.StatusCode, url)}
			}
			return fmt.Errorf("crawler: status %d fetching %s", resp.StatusCode, url)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return err
		}
		article = extractArticle(doc, body)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

func extractArticle(doc *goquery.Document, rawBody []byte) *adapters.Article {
	a := &adapters.Article{
		Title:       articleTitle(doc),
		Author:      articleAuthor(doc),
		PublishedAt: articlePublishedAt(doc),
	}

	content := doc.Find("article").First()
	if content.Length() == 0 {
		content = doc.Find("main").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	content.Find("script, style, nav, footer").Remove()

	if content.Length() > 0 {
		if html, err := content.Html(); err == nil {
			a.ContentHTML = html
		}
		a.ContentText = collapseWhitespace(content.Text())
	} else {
		a.ContentHTML = string(rawBody)
		a.ContentText = collapseWhitespace(doc.Text())
	}
	return a
}

func articleTitle(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v := strings.TrimSpace(doc.Find("title").First().Text()); v != "" {
		return v
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func articleAuthor(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[property="article:author"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(doc.Find(`a[rel="author"]`).First().Text())
}

func articlePublishedAt(doc *goquery.Document) *time.Time {
	raw, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content")
	if !ok {
		raw, ok = doc.Find(`meta[name="date"]`).Attr("content")
	}
	if !ok {
		raw, ok = doc.Find("time[datetime]").Attr("datetime")
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := mail.ParseDate(raw); err == nil {
		return &t
	}
	return nil
}

func extractHTML(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, nav, footer").Remove()
	return doc.Find("body").Text(), nil
}

// extractPDF tries the local text layer first, falling back to Document
// AI OCR when the PDF has none — mirroring the pypdf-then-pdfplumber
// fallback order of the system this spec was distilled from.
func (c *Crawler) extractPDF(ctx context.Context, body []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err == nil {
		var sb strings.Builder
		for i := 1; i <= reader.NumPage(); i++ {
			page := reader.Page(i)
			content, err := page.GetPlainText(nil)
			if err != nil {
				continue
			}
			sb.WriteString(content)
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			return text, nil
		}
	}

	if c.ocr == nil {
		return "", fmt.Errorf("pdf has no extractable text layer and no OCR fallback is configured")
	}
	return c.ocr.ExtractText(ctx, body)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " ", " ")), " ")
}
