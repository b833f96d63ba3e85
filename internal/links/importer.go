package links

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"brandforge/internal/core"
	"brandforge/internal/logger"
)

// ErrUnsupportedPage is returned when a page yields no usable product data.
var ErrUnsupportedPage = errors.New("page has no extractable product data")

const defaultTimeout = 30 * time.Second

// Importer scrapes product pages into affiliate links. It reads standard
// metadata (title, description, Open Graph tags) rather than per-merchant
// selectors, so any reasonably tagged product page imports cleanly.
type Importer struct {
	httpClient *http.Client
}

func NewImporter() *Importer {
	return &Importer{httpClient: &http.Client{Timeout: defaultTimeout}}
}

// FromURL fetches a product page and extracts an affiliate link from it.
// The returned link has a fresh local id; merging it into an existing
// project (matching on URL) is the caller's job.
func (im *Importer) FromURL(ctx context.Context, pageURL string) (*core.AffiliateLink, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid product URL %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; brandforge/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := im.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product page: %w", err)
	}

	link := extract(doc, parsed)
	if link.Name == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPage, pageURL)
	}
	link.ID = uuid.NewString()
	link.URL = pageURL
	logger.Debug("imported product page", "url", pageURL, "name", link.Name)
	return link, nil
}

func extract(doc *goquery.Document, pageURL *url.URL) *core.AffiliateLink {
	link := &core.AffiliateLink{
		Name:        firstNonEmpty(metaContent(doc, "og:title"), strings.TrimSpace(doc.Find("title").First().Text())),
		Description: firstNonEmpty(metaContent(doc, "og:description"), metaName(doc, "description")),
		Provider:    firstNonEmpty(metaContent(doc, "og:site_name"), strings.TrimPrefix(pageURL.Hostname(), "www.")),
	}

	// Product pages commonly expose their rating through itemprop microdata,
	// either as a content attribute or as the element text.
	ratingNode := doc.Find(`[itemprop="ratingValue"]`).First()
	raw := firstNonEmpty(
		strings.TrimSpace(ratingNode.AttrOr("content", "")),
		strings.TrimSpace(ratingNode.Text()),
	)
	if rating, err := strconv.ParseFloat(raw, 64); err == nil {
		link.Rating = &rating
	}

	doc.Find("ul.features li, ul.product-features li").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			link.Features = append(link.Features, text)
		}
	})
	if review := strings.TrimSpace(doc.Find(`[itemprop="reviewBody"]`).First().Text()); review != "" {
		link.Reviews = review
	}
	return link
}

func metaContent(doc *goquery.Document, property string) string {
	return strings.TrimSpace(doc.Find(`meta[property="` + property + `"]`).First().AttrOr("content", ""))
}

func metaName(doc *goquery.Document, name string) string {
	return strings.TrimSpace(doc.Find(`meta[name="` + name + `"]`).First().AttrOr("content", ""))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
