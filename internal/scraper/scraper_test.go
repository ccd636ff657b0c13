package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deusflow/newsclip/internal/news"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paragraph = "The provincial council approved the revised housing budget on Tuesday after a long debate."

func articlePage() string {
	return fmt.Sprintf(`<html><head><title>Housing budget</title>
<meta property="og:title" content="Council approves housing budget"></head>
<body><nav><p>Menu</p></nav><article>
<p>%s</p><p>%s</p><p>%s</p>
<p>Copyright Daily Times. All rights reserved and more words to pass the length filter.</p>
</article></body></html>`, paragraph, paragraph, paragraph)
}

func newTestServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, articlePage())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractFullArticle(t *testing.T) {
	hits := 0
	srv := newTestServer(t, &hits)

	s := New(nil, 5, 200)
	got, err := s.ExtractFullArticle(context.Background(), srv.URL+"/story")
	require.NoError(t, err)

	assert.Equal(t, "Council approves housing budget", got.Title)
	assert.Equal(t, 3, strings.Count(got.Content, paragraph))
	assert.NotContains(t, got.Content, "Copyright")
	assert.NotContains(t, got.Content, "Menu")
}

func TestExtractFullArticleHTTPError(t *testing.T) {
	hits := 0
	srv := newTestServer(t, &hits)

	_, err := New(nil, 5, 200).ExtractFullArticle(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestEnrichOnlyShortDescriptions(t *testing.T) {
	hits := 0
	srv := newTestServer(t, &hits)

	s := New(nil, 1, 50)
	s.pause = 0
	articles := []news.Article{
		{URL: srv.URL + "/long", Description: strings.Repeat("x", 60)},
		{URL: srv.URL + "/missing", Description: "short"},
		{URL: srv.URL + "/short", Description: "short"},
	}

	got := s.Enrich(context.Background(), articles)
	assert.Equal(t, 1, hits, "page budget is one fetch")
	assert.Empty(t, got[0].Content)
	assert.Empty(t, got[1].Content)
	assert.Empty(t, got[2].Content)

	s.maxPages = 5
	got = s.Enrich(context.Background(), articles)
	assert.Contains(t, got[2].Content, paragraph)
}

func TestCleanContentKeepsWholeParagraphs(t *testing.T) {
	long := strings.Repeat("가", 1000)
	out := cleanContent(long + "\n\n" + long + "\n\n" + "tail")
	assert.Equal(t, long, out)
}
