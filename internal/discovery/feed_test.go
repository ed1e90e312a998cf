package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Economics Working Papers</title>
    <item>
      <title>Digital &lt;b&gt;Governance&lt;/b&gt; in Cities</title>
      <description>&lt;p&gt;A study of &lt;i&gt;platform&lt;/i&gt; governance.&lt;/p&gt;</description>
      <category>governance</category>
      <category>platforms</category>
      <pubDate>Mon, 02 Jan 2023 15:04:05 GMT</pubDate>
      <author>jane@example.com (Jane Doe)</author>
    </item>
    <item>
      <title>Second Paper</title>
      <description>Plain text abstract.</description>
      <pubDate>Tue, 03 Jan 2023 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title></title>
      <description>No title, skipped.</description>
    </item>
  </channel>
</rss>`

type memStore struct {
	mu     sync.Mutex
	papers []domain.Paper
}

func (m *memStore) UpsertPaper(_ context.Context, p domain.Paper) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.papers = append(m.papers, p)

	return nil
}

func TestPoller_Poll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	store := &memStore{}
	p := NewPoller(store, []string{srv.URL}, 10, zerolog.Nop())

	p.Poll(context.Background())

	require.Len(t, store.papers, 2)

	first := store.papers[0]
	assert.Equal(t, "Digital Governance in Cities", first.Title)
	assert.Equal(t, "A study of platform governance.", first.Abstract)
	assert.Equal(t, 2023, first.Year)
	assert.Equal(t, "Economics Working Papers", first.Journal)
	assert.Equal(t, []string{"governance", "platforms"}, first.Keywords)
	assert.NotEmpty(t, first.ID)
	assert.Contains(t, first.Source, "feed:")
}

func TestPoller_FetchLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	store := &memStore{}
	p := NewPoller(store, []string{srv.URL}, 1, zerolog.Nop())

	p.Poll(context.Background())

	assert.Len(t, store.papers, 1)
}

func TestPoller_FeedErrorSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := &memStore{}
	p := NewPoller(store, []string{srv.URL}, 10, zerolog.Nop())

	// Must not panic or abort; the failed feed is logged and skipped.
	p.Poll(context.Background())

	assert.Empty(t, store.papers)
}

func TestItemToPaper_YearFallback(t *testing.T) {
	item := &gofeed.Item{
		Title:     "Fallback Year",
		Published: "发表于2019年",
	}

	paper := itemToPaper(item, "Feed", "feed:example.org")

	assert.Equal(t, 2019, paper.Year)
}

func TestItemToPaper_Authors(t *testing.T) {
	item := &gofeed.Item{
		Title: "Authored",
		Authors: []*gofeed.Person{
			{Name: "Jane Doe"},
			{Name: ""},
			nil,
		},
		PublishedParsed: timePtr(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)),
	}

	paper := itemToPaper(item, "Feed", "feed:example.org")

	assert.Equal(t, []string{"Jane Doe"}, paper.Authors)
	assert.Equal(t, 2021, paper.Year)
}

func timePtr(t time.Time) *time.Time { return &t }

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no markup", "plain text", "plain text"},
		{"tags removed", "<p>Hello <b>world</b></p>", "Hello world"},
		{"script dropped", "<script>alert(1)</script>visible", "visible"},
		{"style dropped", "<style>.a{}</style>text", "text"},
		{"whitespace collapsed", "a\n\n  b", "a b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripTags(tt.in); got != tt.want {
				t.Errorf("StripTags(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFeedSource(t *testing.T) {
	assert.Equal(t, "feed:arxiv.org", feedSource("https://arxiv.org/rss/econ"))
	assert.Equal(t, "feed", feedSource("::not-a-url"))
}
