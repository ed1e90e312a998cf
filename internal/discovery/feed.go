// Package discovery polls RSS/Atom feeds for newly published paper
// metadata and lands normalized records in storage.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
	"github.com/lueurxax/lit-review-engine/internal/ingest"
	"github.com/lueurxax/lit-review-engine/internal/platform/observability"
)

const (
	feedFetchTimeout = 10 * time.Second
	defaultUserAgent = "lit-review-engine/1.0"
	headerUserAgent  = "User-Agent"

	errFmtFetchFeed = "fetch feed: %w"
	errFmtParseFeed = "parse feed: %w"
)

var errFeedHTTPStatus = errors.New("feed HTTP error")

// PaperStore persists discovered papers.
type PaperStore interface {
	UpsertPaper(ctx context.Context, p domain.Paper) error
}

// Poller fetches configured feeds and upserts each entry as a paper
// metadata record. Entries that normalize to an empty title are skipped.
type Poller struct {
	httpClient *http.Client
	feedParser *gofeed.Parser
	store      PaperStore
	feedURLs   []string
	fetchLimit int
	logger     zerolog.Logger
}

func NewPoller(store PaperStore, feedURLs []string, fetchLimit int, logger zerolog.Logger) *Poller {
	return &Poller{
		httpClient: &http.Client{Timeout: feedFetchTimeout},
		feedParser: gofeed.NewParser(),
		store:      store,
		feedURLs:   feedURLs,
		fetchLimit: fetchLimit,
		logger:     logger.With().Str("component", "discovery").Logger(),
	}
}

// Poll fetches every configured feed once. Individual feed failures are
// logged and skipped so one dead source does not starve the rest.
func (p *Poller) Poll(ctx context.Context) {
	for _, feedURL := range p.feedURLs {
		count, err := p.pollFeed(ctx, feedURL)
		if err != nil {
			p.logger.Warn().Err(err).Str("feed", feedURL).Msg("feed poll failed")

			continue
		}

		p.logger.Info().Str("feed", feedURL).Int("papers", count).Msg("feed polled")
	}
}

func (p *Poller) pollFeed(ctx context.Context, feedURL string) (int, error) {
	feed, err := p.fetchFeed(ctx, feedURL)
	if err != nil {
		return 0, err
	}

	source := feedSource(feedURL)
	stored := 0

	for _, item := range feed.Items {
		if p.fetchLimit > 0 && stored >= p.fetchLimit {
			break
		}

		paper := itemToPaper(item, feed.Title, source)
		if paper.Title == "" {
			continue
		}

		if err := p.store.UpsertPaper(ctx, paper); err != nil {
			return stored, fmt.Errorf("store paper %s: %w", paper.ID, err)
		}

		observability.PapersDiscovered.WithLabelValues(source).Inc()

		stored++
	}

	return stored, nil
}

func (p *Poller) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf(errFmtFetchFeed, err)
	}

	req.Header.Set(headerUserAgent, defaultUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf(errFmtFetchFeed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errFeedHTTPStatus, resp.StatusCode)
	}

	feed, err := p.feedParser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf(errFmtParseFeed, err)
	}

	return feed, nil
}

func itemToPaper(item *gofeed.Item, feedTitle, source string) domain.Paper {
	authors := make([]string, 0, len(item.Authors))
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	abstract := item.Description
	if abstract == "" {
		abstract = item.Content
	}

	paper := domain.Paper{
		Title:    StripTags(item.Title),
		Authors:  authors,
		Year:     itemYear(item),
		Journal:  feedTitle,
		Abstract: StripTags(abstract),
		Keywords: item.Categories,
		Source:   source,
	}

	return ingest.NormalizePaper(paper)
}

func itemYear(item *gofeed.Item) int {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.Year()
	}

	return ingest.NormalizeYear(item.Published)
}

func feedSource(feedURL string) string {
	parsed, err := url.Parse(feedURL)
	if err != nil || parsed.Host == "" {
		return "feed"
	}

	return "feed:" + parsed.Host
}

// StripTags removes markup from feed HTML and collapses the remaining
// text's whitespace. Script and style bodies are dropped entirely.
func StripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return collapseSpaces(s)
	}

	var (
		b    strings.Builder
		skip int
	)

	tokenizer := html.NewTokenizer(strings.NewReader(s))

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return collapseSpaces(b.String())
		case html.StartTagToken:
			if name, _ := tokenizer.TagName(); isSkippedTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := tokenizer.TagName(); isSkippedTag(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isSkippedTag(name []byte) bool {
	return string(name) == "script" || string(name) == "style"
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
