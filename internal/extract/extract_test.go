package extract_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/newscrawl/internal/extract"
	"github.com/jonesrussell/newscrawl/internal/logger"
)

const articleHTML = `<html><body>
<article>
	<header>
		<h1 class="headline"> Die Überschrift </h1>
		<time datetime="2023-03-04T10:00:00+01:00" class="timeformat">4. März 2023</time>
	</header>
	<div class="body">
		<p> Erster Absatz. </p>
		<p>Zweiter Absatz.</p>
		<p>   </p>
	</div>
	<a class="teaser" href="/artikel/eins.html">eins</a>
	<a class="teaser" href="/artikel/zwei.html">zwei</a>
</article>
</body></html>`

func newEngine(t *testing.T) *extract.Engine {
	t.Helper()
	return extract.NewEngine(logger.NewNoOp())
}

func TestLocatorValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		locator extract.Locator
		wantErr bool
	}{
		{name: "unset locator is valid", locator: extract.Locator{}},
		{name: "valid xpath", locator: extract.Locator{Query: "//a/@href"}},
		{name: "explicit xpath kind", locator: extract.Locator{Kind: "xpath", Query: "//p//text()"}},
		{name: "valid css", locator: extract.Locator{Kind: "css", Query: "a.teaser", Attr: "href"}},
		{name: "broken xpath", locator: extract.Locator{Query: "//a[@"}, wantErr: true},
		{name: "broken css", locator: extract.Locator{Kind: "css", Query: "a["}, wantErr: true},
		{name: "unknown kind", locator: extract.Locator{Kind: "jsonpath", Query: "$.a"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.locator.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocatorSelectXPath(t *testing.T) {
	t.Parallel()

	doc, err := extract.ParseHTML([]byte(articleHTML))
	require.NoError(t, err)

	hrefs, err := extract.Locator{Query: "//a[@class='teaser']/@href"}.Select(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"/artikel/eins.html", "/artikel/zwei.html"}, hrefs)
}

func TestLocatorSelectCSS(t *testing.T) {
	t.Parallel()

	doc, err := extract.ParseHTML([]byte(articleHTML))
	require.NoError(t, err)

	hrefs, err := extract.Locator{Kind: "css", Query: "a.teaser", Attr: "href"}.Select(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"/artikel/eins.html", "/artikel/zwei.html"}, hrefs)

	// Select does not trim; callers do.
	text, err := extract.Locator{Kind: "css", Query: "h1.headline"}.Select(doc)
	require.NoError(t, err)
	require.Len(t, text, 1)
	assert.Equal(t, "Die Überschrift", strings.TrimSpace(text[0]))
}

func TestLocatorFirst(t *testing.T) {
	t.Parallel()

	doc, err := extract.ParseHTML([]byte(articleHTML))
	require.NoError(t, err)

	value, found, err := extract.Locator{Query: "//time/@datetime"}.First(doc)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2023-03-04T10:00:00+01:00", value)

	_, found, err = extract.Locator{Query: "//h2"}.First(doc)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEngineApplySingle(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	doc, err := extract.ParseHTML([]byte(articleHTML))
	require.NoError(t, err)

	got := engine.Apply(doc, extract.Rule{
		Locator: extract.Locator{Query: "//h1[@class='headline']//text()"},
	})
	assert.Equal(t, "Die Überschrift", got)
}

func TestEngineApplyNoMatchIsNil(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	doc, err := extract.ParseHTML([]byte(articleHTML))
	require.NoError(t, err)

	assert.Nil(t, engine.Apply(doc, extract.Rule{
		Locator: extract.Locator{Query: "//h3//text()"},
	}))
	assert.Nil(t, engine.Apply(doc, extract.Rule{}))
}

func TestEngineApplyExtractAll(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	doc, err := extract.ParseHTML([]byte(articleHTML))
	require.NoError(t, err)

	got := engine.Apply(doc, extract.Rule{
		Locator:    extract.Locator{Query: "//div[@class='body']//p//text()"},
		ExtractAll: true,
	})
	assert.Equal(t, []string{"Erster Absatz.", "Zweiter Absatz."}, got)

	// Extract-all with nothing matched is an empty slice, never nil.
	got = engine.Apply(doc, extract.Rule{
		Locator:    extract.Locator{Query: "//ul//li//text()"},
		ExtractAll: true,
	})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEngineApplyPostProcess(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	doc, err := extract.ParseHTML([]byte(articleHTML))
	require.NoError(t, err)

	got := engine.Apply(doc, extract.Rule{
		Locator:     extract.Locator{Query: "//time//text()"},
		PostProcess: "parse_date",
	})
	assert.Equal(t, "2023-03-04", got)
}

func TestEngineApplyFailingPostProcessYieldsNil(t *testing.T) {
	t.Parallel()

	extract.RegisterPostProcess("always_fails", func(any) (any, error) {
		return nil, errors.New("boom")
	})
	extract.RegisterPostProcess("always_panics", func(any) (any, error) {
		panic("boom")
	})

	engine := newEngine(t)
	doc, err := extract.ParseHTML([]byte(articleHTML))
	require.NoError(t, err)

	rule := extract.Rule{Locator: extract.Locator{Query: "//h1//text()"}}

	rule.PostProcess = "always_fails"
	assert.Nil(t, engine.Apply(doc, rule))

	rule.PostProcess = "always_panics"
	assert.Nil(t, engine.Apply(doc, rule))
}

func TestEngineFields(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	doc, err := extract.ParseHTML([]byte(articleHTML))
	require.NoError(t, err)

	fields := engine.Fields(doc, map[string]extract.Rule{
		"title":       {Locator: extract.Locator{Query: "//h1//text()"}},
		"description": {Locator: extract.Locator{Query: "//h6//text()"}},
		"paragraphs": {
			Locator:    extract.Locator{Query: "//div[@class='body']//p//text()"},
			ExtractAll: true,
		},
	})

	require.Len(t, fields, 3)
	assert.Equal(t, "Die Überschrift", fields["title"])
	assert.Nil(t, fields["description"])
	assert.Equal(t, []string{"Erster Absatz.", "Zweiter Absatz."}, fields["paragraphs"])
}

func TestRuleValidate(t *testing.T) {
	t.Parallel()

	valid := extract.Rule{
		Locator:     extract.Locator{Query: "//time//text()"},
		PostProcess: "parse_date",
	}
	assert.NoError(t, valid.Validate())

	unknown := extract.Rule{
		Locator:     extract.Locator{Query: "//time//text()"},
		PostProcess: "not_registered",
	}
	assert.Error(t, unknown.Validate())
}

func TestJoinStringsPostProcess(t *testing.T) {
	t.Parallel()

	fn, ok := extract.LookupPostProcess("join_strings")
	require.True(t, ok)

	got, err := fn([]string{" eins ", "", "zwei"})
	require.NoError(t, err)
	assert.Equal(t, "eins zwei", got)
}
