package frontier_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/newscrawl/internal/frontier"
)

func TestDequeOrdering(t *testing.T) {
	t.Parallel()

	d := frontier.NewDeque([]frontier.Item{
		{URL: "a"},
		{URL: "b"},
	})
	require.Equal(t, 2, d.Len())

	// A pagination continuation jumps the queue.
	d.PushFront(frontier.Item{URL: "a-page-2"})
	d.PushBack(frontier.Item{URL: "c"})

	var urls []string
	for {
		item, ok := d.PopFront()
		if !ok {
			break
		}
		urls = append(urls, item.URL)
	}
	assert.Equal(t, []string{"a-page-2", "a", "b", "c"}, urls)
	assert.Equal(t, 0, d.Len())
}

func TestDequePopEmpty(t *testing.T) {
	t.Parallel()

	d := frontier.NewDeque(nil)
	_, ok := d.PopFront()
	assert.False(t, ok)
}

func TestDequeCopiesSeedSlice(t *testing.T) {
	t.Parallel()

	seedItems := []frontier.Item{{URL: "a", AnchorDate: time.Now()}}
	d := frontier.NewDeque(seedItems)
	seedItems[0].URL = "mutated"

	item, ok := d.PopFront()
	require.True(t, ok)
	assert.Equal(t, "a", item.URL)
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "uppercase scheme and host",
			input: "HTTPS://WWW.Example.COM/Artikel",
			want:  "https://www.example.com/Artikel",
		},
		{
			name:  "default port and fragment dropped",
			input: "https://www.example.com:443/artikel#kommentare",
			want:  "https://www.example.com/artikel",
		},
		{
			name:  "query parameters sorted",
			input: "https://www.example.com/archiv?z=1&a=2",
			want:  "https://www.example.com/archiv?a=2&z=1",
		},
		{
			name:  "duplicate slashes and dot segments",
			input: "https://www.example.com/a//b/../artikel",
			want:  "https://www.example.com/a/artikel",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := frontier.NormalizeURL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURLStable(t *testing.T) {
	t.Parallel()

	once, err := frontier.NormalizeURL("https://www.example.com/artikel?b=2&a=1#x")
	require.NoError(t, err)
	twice, err := frontier.NormalizeURL(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}
