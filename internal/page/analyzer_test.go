package page_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/jonesrussell/newscrawl/internal/extract"
	"github.com/jonesrussell/newscrawl/internal/logger"
	"github.com/jonesrussell/newscrawl/internal/page"
	"github.com/jonesrussell/newscrawl/internal/sites"
)

const indexHTML = `<html><body>
<main>
	<section class="teasers">
		<a href="/artikel/eins.html">eins</a>
		<a href="https://www.example.com/artikel/zwei.html">zwei</a>
		<a href="">leer</a>
	</section>
	<nav class="paginator">
		<li class="active"><a>2</a></li>
		<li class="next"><a href="/archiv?page=3">weiter</a></li>
	</nav>
</main>
</body></html>`

func parseIndex(t *testing.T) *html.Node {
	t.Helper()
	doc, err := extract.ParseHTML([]byte(indexHTML))
	require.NoError(t, err)
	return doc
}

func baseURL(t *testing.T) *url.URL {
	t.Helper()
	base, err := url.Parse("https://www.example.com")
	require.NoError(t, err)
	return base
}

func TestArticleLinksResolvedAgainstBase(t *testing.T) {
	t.Parallel()

	analyzer := page.NewAnalyzer(sites.LocatorSet{
		ArticleLinks: extract.Locator{Query: "//section[@class='teasers']//a/@href"},
	}, logger.NewNoOp())

	links := analyzer.ArticleLinks(parseIndex(t), baseURL(t))
	assert.Equal(t, []string{
		"https://www.example.com/artikel/eins.html",
		"https://www.example.com/artikel/zwei.html",
	}, links)
}

func TestIsValidIndexPage(t *testing.T) {
	t.Parallel()

	doc := parseIndex(t)

	unset := page.NewAnalyzer(sites.LocatorSet{}, logger.NewNoOp())
	assert.True(t, unset.IsValidIndexPage(doc))

	present := page.NewAnalyzer(sites.LocatorSet{
		MustExist: extract.Locator{Query: "//nav[@class='paginator']"},
	}, logger.NewNoOp())
	assert.True(t, present.IsValidIndexPage(doc))

	absent := page.NewAnalyzer(sites.LocatorSet{
		MustExist: extract.Locator{Query: "//div[@class='listing']"},
	}, logger.NewNoOp())
	assert.False(t, absent.IsValidIndexPage(doc))
}

func TestPageLimitExceeded(t *testing.T) {
	t.Parallel()

	doc := parseIndex(t)
	analyzer := page.NewAnalyzer(sites.LocatorSet{
		ActivePage: extract.Locator{Query: "//li[@class='active']/a"},
	}, logger.NewNoOp())

	assert.False(t, analyzer.PageLimitExceeded(doc, 2))
	assert.True(t, analyzer.PageLimitExceeded(doc, 1))
}

func TestPageLimitUnconfiguredNeverExceeds(t *testing.T) {
	t.Parallel()

	analyzer := page.NewAnalyzer(sites.LocatorSet{}, logger.NewNoOp())
	assert.False(t, analyzer.PageLimitExceeded(parseIndex(t), 1))
}

func TestPageLimitMarkerAbsentNeverExceeds(t *testing.T) {
	t.Parallel()

	analyzer := page.NewAnalyzer(sites.LocatorSet{
		ActivePage: extract.Locator{Query: "//li[@class='missing']/a"},
	}, logger.NewNoOp())
	assert.False(t, analyzer.PageLimitExceeded(parseIndex(t), 1))
}

func TestPageLimitNonNumericMarkerFailsOpen(t *testing.T) {
	t.Parallel()

	analyzer := page.NewAnalyzer(sites.LocatorSet{
		ActivePage: extract.Locator{Query: "//li[@class='next']/a"},
	}, logger.NewNoOp())
	assert.False(t, analyzer.PageLimitExceeded(parseIndex(t), 1))
}

func TestNextPageURL(t *testing.T) {
	t.Parallel()

	analyzer := page.NewAnalyzer(sites.LocatorSet{
		NextPage: extract.Locator{Query: "//li[@class='next']"},
	}, logger.NewNoOp())

	next := analyzer.NextPageURL(parseIndex(t), baseURL(t))
	assert.Equal(t, "https://www.example.com/archiv?page=3", next)
}

func TestNextPageURLExhausted(t *testing.T) {
	t.Parallel()

	doc := parseIndex(t)

	unset := page.NewAnalyzer(sites.LocatorSet{}, logger.NewNoOp())
	assert.Empty(t, unset.NextPageURL(doc, baseURL(t)))

	missing := page.NewAnalyzer(sites.LocatorSet{
		NextPage: extract.Locator{Query: "//li[@class='nope']"},
	}, logger.NewNoOp())
	assert.Empty(t, missing.NextPageURL(doc, baseURL(t)))
}
