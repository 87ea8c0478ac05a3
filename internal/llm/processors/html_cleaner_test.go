package processors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<!DOCTYPE html>
<html>
<head><title>Careers</title><script>var tracking = 1;</script><style>.x{}</style></head>
<body>
  <nav class="site-nav" data-analytics="nav">Home</nav>
  <!-- listings start -->
  <main id="content" style="color:red" onclick="steal()">
    <ul class="jobs">
      <li class="job" data-job-id="42" data-tracking="abc">
        <a href="/jobs/42" target="_blank">Backend Engineer</a>
        <img src="logo.png">
        <svg><path d="M0"/></svg>
        <span class="location">Berlin</span>
      </li>
    </ul>
    <iframe src="https://ads.example.com"></iframe>
    <noscript>enable js</noscript>
  </main>
</body>
</html>`

func TestNormalizeStripsNoiseAndKeepsAllowedAttributes(t *testing.T) {
	out, err := NewHTMLCleaner(0).Normalize(listingPage)
	require.NoError(t, err)

	for _, gone := range []string{"<script", "<style", "<svg", "<img", "<iframe", "<noscript", "<!--", "onclick", "style=", "target=", "data-tracking", "site-nav"} {
		assert.NotContains(t, out, gone)
	}
	assert.True(t, strings.HasPrefix(out, `<main id="content">`), out)
	assert.Contains(t, out, `<li class="job" data-job-id="42">`)
	assert.Contains(t, out, `<a href="/jobs/42">Backend Engineer</a>`)
	assert.Contains(t, out, `<span class="location">Berlin</span>`)
}

func TestNormalizeFocalRootOrder(t *testing.T) {
	cleaner := NewHTMLCleaner(0)

	out, err := cleaner.Normalize(`<body><div class="header">x</div><div role="main"><p>a</p></div></body>`)
	require.NoError(t, err)
	assert.Equal(t, `<div role="main"><p>a</p></div>`, out)

	out, err = cleaner.Normalize(`<body><div class="header">x</div><section class="Career-Openings"><div class="job-card">a</div></section></body>`)
	require.NoError(t, err)
	assert.Equal(t, `<section class="Career-Openings"><div class="job-card">a</div></section>`, out)

	out, err = cleaner.Normalize(`<body><div class="header">x</div></body>`)
	require.NoError(t, err)
	assert.Equal(t, `<body><div class="header">x</div></body>`, out)
}

func TestNormalizeIsDeterministicAndTruncates(t *testing.T) {
	cleaner := NewHTMLCleaner(0)
	first, err := cleaner.Normalize(listingPage)
	require.NoError(t, err)
	second, err := cleaner.Normalize(listingPage)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	short, err := NewHTMLCleaner(20).Normalize(listingPage)
	require.NoError(t, err)
	assert.Len(t, short, 20)
	assert.Equal(t, first[:20], short)
}

func TestNormalizeEmptyDocument(t *testing.T) {
	out, err := NewHTMLCleaner(0).Normalize("  ")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNormalizeSkipsHintedNavigationLinks(t *testing.T) {
	page := `<html><body>
<header><a class="nav-careers" href="/careers">Careers</a></header>
<div id="app"><ul>
  <li class="opening-row"><a href="/jobs/1">Backend Engineer</a></li>
  <li class="opening-row"><a href="/jobs/2">Data Analyst</a></li>
</ul></div>
</body></html>`

	out, err := NewHTMLCleaner(0).Normalize(page)
	require.NoError(t, err)
	assert.NotContains(t, out, "nav-careers")
	assert.True(t, strings.HasPrefix(out, "<ul>"), out)
	assert.Contains(t, out, "Backend Engineer")
	assert.Contains(t, out, "Data Analyst")
}

func TestNormalizePrefersContainerWithMostHintedRows(t *testing.T) {
	page := `<html><body>
<div class="career-banner"><div class="job-alert">Get alerts</div></div>
<section class="job-list">
  <div class="job-card"><a href="/jobs/1">One</a></div>
  <div class="job-card"><a href="/jobs/2">Two</a></div>
</section>
</body></html>`

	out, err := NewHTMLCleaner(0).Normalize(page)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<section class="job-list">`), out)
}

func TestNormalizeFallsBackToBodyWithoutListingContainer(t *testing.T) {
	page := `<html><body>
<div class="career-intro"><p>Join us</p></div>
<div id="list"><a href="/jobs/1">One</a><a href="/jobs/2">Two</a></div>
</body></html>`

	out, err := NewHTMLCleaner(0).Normalize(page)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<body>"), out)
	assert.Contains(t, out, "/jobs/2")
}
