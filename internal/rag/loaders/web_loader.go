package loaders

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"bostr/internal/rag/interfaces"
	"bostr/internal/rag/schema"
)

var whitespaceRe = regexp.MustCompile(`[ \t]+`)

// WebLoader fetches a page and the pages it links to on the same host, up to
// MaxPages in total, and returns the extracted text as one Document per page.
type WebLoader struct {
	MaxPages int
	client   *http.Client
}

// NewWebLoader creates a WebLoader with the given crawl budget. A budget of
// zero or less is treated as a single page.
func NewWebLoader(maxPages int) *WebLoader {
	if maxPages < 1 {
		maxPages = 1
	}
	return &WebLoader{
		MaxPages: maxPages,
		client:   http.DefaultClient,
	}
}

// Load crawls breadth-first starting at rawURL. Linked pages within a level
// are fetched concurrently; pages that fail to fetch are skipped, and the
// crawl only fails when the start page itself is unreachable.
func (l *WebLoader) Load(ctx context.Context, rawURL string) ([]*schema.Document, error) {
	start, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	text, links, err := l.fetchPage(ctx, start.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", start.String(), err)
	}

	visited := map[string]bool{start.String(): true}
	var documents []*schema.Document
	if strings.TrimSpace(text) != "" {
		documents = append(documents, newPageDocument(start.String(), text))
	}

	level := unvisitedLinks(start, visited, links)
	for len(level) > 0 && len(documents) < l.MaxPages {
		if remaining := l.MaxPages - len(documents); len(level) > remaining {
			level = level[:remaining]
		}

		type pageResult struct {
			url   string
			text  string
			links []string
		}
		results := make([]pageResult, len(level))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i, pageURL := range level {
			i, pageURL := i, pageURL
			g.Go(func() error {
				// Broken links are skipped, not fatal.
				text, links, err := l.fetchPage(gctx, pageURL)
				if err != nil {
					return nil
				}
				results[i] = pageResult{url: pageURL, text: text, links: links}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var discovered []string
		for _, res := range results {
			if res.url == "" {
				continue
			}
			if len(documents) < l.MaxPages && strings.TrimSpace(res.text) != "" {
				documents = append(documents, newPageDocument(res.url, res.text))
			}
			discovered = append(discovered, res.links...)
		}
		level = unvisitedLinks(start, visited, discovered)
	}

	return documents, nil
}

func newPageDocument(pageURL, text string) *schema.Document {
	return &schema.Document{
		ID:   uuid.New().String(),
		Text: text,
		Metadata: map[string]interface{}{
			schema.MetadataKeySource: pageURL,
		},
	}
}

// unvisitedLinks resolves the hrefs, keeps the same-host ones not seen yet
// and marks them visited so a page linked twice is fetched once.
func unvisitedLinks(start *url.URL, visited map[string]bool, hrefs []string) []string {
	var out []string
	for _, href := range hrefs {
		resolved := resolveLink(start, href)
		if resolved == "" || visited[resolved] {
			continue
		}
		visited[resolved] = true
		out = append(out, resolved)
	}
	return out
}

// fetchPage downloads one page and returns its readable text plus the raw
// href values found in it.
func (l *WebLoader) fetchPage(ctx context.Context, pageURL string) (string, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}

	text, err := extractReadableText(string(body))
	if err != nil {
		return "", nil, err
	}

	return text, ExtractLinks(strings.NewReader(string(body))), nil
}

// extractReadableText strips boilerplate elements and converts the remaining
// HTML to markdown, which keeps headings and lists readable for the LLM.
func extractReadableText(rawHTML string) (string, error) {
	stripped := stripElements(rawHTML, "script", "style", "nav")
	text, err := htmltomarkdown.ConvertString(stripped)
	if err != nil {
		return "", err
	}
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text), nil
}

// stripElements removes the named elements and their contents from an HTML
// fragment by re-rendering the token stream without them.
func stripElements(rawHTML string, names ...string) string {
	skip := map[string]bool{}
	for _, n := range names {
		skip[n] = true
	}

	z := html.NewTokenizer(strings.NewReader(rawHTML))
	var sb strings.Builder
	depth := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return sb.String()
		}

		tn, _ := z.TagName()
		tag := string(tn)

		switch tt {
		case html.StartTagToken:
			if skip[tag] {
				depth++
				continue
			}
		case html.EndTagToken:
			if skip[tag] {
				if depth > 0 {
					depth--
				}
				continue
			}
		case html.SelfClosingTagToken:
			if skip[tag] {
				continue
			}
		}

		if depth == 0 {
			sb.Write(z.Raw())
		}
	}
}

// ExtractLinks returns every href attribute value of the anchor tags in an
// HTML document, in document order.
func ExtractLinks(body io.Reader) []string {
	z := html.NewTokenizer(body)
	var links []string

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return links
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		tn, hasAttr := z.TagName()
		if string(tn) != "a" || !hasAttr {
			continue
		}
		for {
			key, val, more := z.TagAttr()
			if string(key) == "href" {
				links = append(links, string(val))
				break
			}
			if !more {
				break
			}
		}
	}
}

// resolveLink resolves href against the start URL and returns it only when
// it stays on the same host. Fragments are dropped so the crawl never
// revisits a page through an anchor link.
func resolveLink(start *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := start.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if resolved.Host != start.Host {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

var _ interfaces.Loader = (*WebLoader)(nil)
