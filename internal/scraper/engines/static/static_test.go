package static

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/config"
	"jobscout/internal/scraper"
)

const listHTML = `<html><body>
<ul>
  <li class="job"><a class="title" href="/jobs/1">One</a></li>
  <li class="job" style="display: none"><a class="title" href="/jobs/2">Two</a></li>
</ul>
<a class="next" href="?page=2">Next</a>
<button class="prev" disabled>Prev</button>
<span class="more" aria-disabled="true">More</span>
</body></html>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/careers", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			_, _ = w.Write([]byte(`<html><body><li class="job">Three</li></body></html>`))
			return
		}
		_, _ = w.Write([]byte(listHTML))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func openPage(t *testing.T) scraper.Page {
	t.Helper()
	cfg := config.Default()
	cfg.Scraper.HostRateLimit = 0
	eng := NewEngine(cfg, nil)

	session, err := eng.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	page, err := session.NewPage(context.Background())
	require.NoError(t, err)
	return page
}

func TestStaticPageQueries(t *testing.T) {
	srv := newServer(t)
	page := openPage(t)
	ctx := context.Background()

	require.NoError(t, page.Navigate(ctx, srv.URL+"/careers"))
	assert.Equal(t, srv.URL+"/careers", page.URL())
	require.NoError(t, page.WaitForSelector(ctx, "li.job", time.Second))

	items, err := page.Elements(ctx, "li.job")
	require.NoError(t, err)
	require.Len(t, items, 2)

	link, err := items[0].Element("a.title")
	require.NoError(t, err)
	href, ok, err := link.Attribute("href")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/jobs/1", href)

	visible, err := items[0].Visible()
	require.NoError(t, err)
	assert.True(t, visible)
	hiddenLink, err := items[1].Element("a")
	require.NoError(t, err)
	visible, err = hiddenLink.Visible()
	require.NoError(t, err)
	assert.False(t, visible, "hidden through an ancestor")

	_, err = items[0].Element("span.location")
	assert.ErrorIs(t, err, scraper.ErrElementNotFound)

	for sel, want := range map[string]bool{"a.next": false, "button.prev": true, "span.more": true} {
		el, err := page.Element(ctx, sel)
		require.NoError(t, err)
		disabled, err := el.Disabled()
		require.NoError(t, err)
		assert.Equal(t, want, disabled, sel)
	}
}

func TestStaticActivateFollowsHref(t *testing.T) {
	srv := newServer(t)
	page := openPage(t)
	ctx := context.Background()
	require.NoError(t, page.Navigate(ctx, srv.URL+"/careers"))

	next, err := page.Element(ctx, "a.next")
	require.NoError(t, err)
	require.NoError(t, page.Activate(ctx, next, time.Second))

	assert.Equal(t, srv.URL+"/careers?page=2", page.URL())
	items, err := page.Elements(ctx, "li.job")
	require.NoError(t, err)
	require.Len(t, items, 1)
	text, _ := items[0].Text()
	assert.Equal(t, "Three", text)

	// an item without href cannot be followed
	item, err := page.Element(ctx, "li.job")
	require.NoError(t, err)
	assert.Error(t, page.Activate(ctx, item, time.Second))
}

func TestStaticErrors(t *testing.T) {
	srv := newServer(t)
	page := openPage(t)
	ctx := context.Background()

	assert.Error(t, page.Navigate(ctx, srv.URL+"/missing"))

	require.NoError(t, page.Navigate(ctx, srv.URL+"/careers"))
	assert.ErrorIs(t, page.WaitForSelector(ctx, "div.nothing", time.Second), scraper.ErrElementNotFound)

	_, err := page.Elements(ctx, "li[")
	assert.Error(t, err)
}
