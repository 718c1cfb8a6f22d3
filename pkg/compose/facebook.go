package compose

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-pkgz/lgr"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
)

const slugMaxLen = 60

// Getter fetches a URL body, the way the fetch client does
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Facebook writes ready-to-post text files with downloaded article
// images under the output directory, grouped by Baghdad date.
type Facebook struct {
	getter    Getter
	outDir    string
	template  string
	maxImages int
	now       func() time.Time
}

// FacebookParams configures the facebook post writer
type FacebookParams struct {
	Getter    Getter
	OutDir    string
	Template  string
	MaxImages int
}

// NewFacebook creates a facebook post writer
func NewFacebook(p FacebookParams) *Facebook {
	maxImages := p.MaxImages
	if maxImages <= 0 {
		maxImages = 3
	}
	return &Facebook{
		getter:    p.Getter,
		outDir:    p.OutDir,
		template:  p.Template,
		maxImages: maxImages,
		now:       time.Now,
	}
}

// Publish renders the post text, grabs article images and writes the
// post file. Returns the post file path and the saved image paths.
func (f *Facebook) Publish(ctx context.Context, item domain.Item) (string, []string, error) {
	dateDir := f.now().In(domain.Baghdad).Format("2006-01-02")
	fbDir := filepath.Join(f.outDir, "facebook", dateDir)
	imgDir := filepath.Join(f.outDir, "images", dateDir)
	if err := os.MkdirAll(fbDir, 0o750); err != nil {
		return "", nil, fmt.Errorf("create facebook dir: %w", err)
	}

	slug := Slugify(item.Title, slugMaxLen)
	text := TemplatePost(item, f.template, f.now)

	var saved []string
	if item.URL != "" {
		saved = f.downloadImages(ctx, f.ArticleImages(ctx, item.URL), imgDir, slug)
	}

	var buf bytes.Buffer
	if len(saved) > 0 {
		buf.WriteString("📷 صور/تفاصيل أكثر بالداخل ⤵️\n")
	}
	buf.WriteString(text)
	buf.WriteString("\n")

	postPath := filepath.Join(fbDir, slug+".txt")
	if err := os.WriteFile(postPath, buf.Bytes(), 0o640); err != nil {
		return "", nil, fmt.Errorf("write post file: %w", err)
	}

	lgr.Printf("[INFO] facebook post ready: %s, images: %d", postPath, len(saved))
	return postPath, saved, nil
}

// ArticleImages collects candidate image URLs from the article page:
// og:image and twitter:image meta tags first, then inline images inside
// the article body. Order is preserved, duplicates dropped. Fetch or
// parse failures return no candidates.
func (f *Facebook) ArticleImages(ctx context.Context, pageURL string) []string {
	body, err := f.getter.Get(ctx, pageURL)
	if err != nil {
		lgr.Printf("[WARN] image discovery failed for %s: %v", pageURL, err)
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		lgr.Printf("[WARN] image discovery parse failed for %s: %v", pageURL, err)
		return nil
	}

	var urls []string
	appendContent := func(_ int, s *goquery.Selection) {
		if u, ok := s.Attr("content"); ok && strings.TrimSpace(u) != "" {
			urls = append(urls, resolveImageURL(pageURL, u))
		}
	}
	doc.Find(`meta[property="og:image"], meta[name="og:image"]`).Each(appendContent)
	doc.Find(`meta[name="twitter:image"], meta[property="twitter:image"]`).Each(appendContent)

	scope := doc.Selection
	if art := doc.Find("article"); art.Length() > 0 {
		scope = art.First()
	}
	scope.Find("img").Each(func(_ int, s *goquery.Selection) {
		u, ok := s.Attr("src")
		if !ok || u == "" {
			u, _ = s.Attr("data-src")
		}
		if u == "" || strings.HasPrefix(u, "data:") {
			return
		}
		urls = append(urls, resolveImageURL(pageURL, u))
	})

	seen := make(map[string]struct{}, len(urls))
	uniq := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		uniq = append(uniq, u)
	}
	return uniq
}

// downloadImages saves up to maxImages candidates as slug_N.<ext>.
// Failed downloads are logged and skipped.
func (f *Facebook) downloadImages(ctx context.Context, urls []string, dir, slug string) []string {
	if len(urls) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		lgr.Printf("[WARN] create image dir %s: %v", dir, err)
		return nil
	}

	if len(urls) > f.maxImages {
		urls = urls[:f.maxImages]
	}
	var saved []string
	for i, u := range urls {
		body, err := f.getter.Get(ctx, u)
		if err != nil {
			lgr.Printf("[WARN] image download failed for %s: %v", u, err)
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%d%s", slug, i+1, imageExt(body)))
		if err := os.WriteFile(path, body, 0o640); err != nil {
			lgr.Printf("[WARN] image save failed for %s: %v", path, err)
			continue
		}
		saved = append(saved, path)
	}
	return saved
}

// imageExt picks a file extension by sniffing the image bytes
func imageExt(body []byte) string {
	switch ct := http.DetectContentType(body); {
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}

// resolveImageURL makes relative image references absolute against the
// article page
func resolveImageURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return strings.TrimSpace(ref)
	}
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(refURL).String()
}
