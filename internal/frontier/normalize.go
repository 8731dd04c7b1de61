package frontier

import (
	"fmt"

	"github.com/PuerkitoBio/purell"
)

// normalizeFlags is the purell flag set applied before dedup lookups. The
// transformations are safe: they never change which page a URL addresses,
// only how it is spelled.
const normalizeFlags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveFragment |
	purell.FlagDecodeUnnecessaryEscapes |
	purell.FlagSortQuery |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagRemoveDotSegments

// NormalizeURL canonicalizes a URL so equivalent spellings map to the same
// dedup key in the article store.
func NormalizeURL(rawURL string) (string, error) {
	normalized, err := purell.NormalizeURLString(rawURL, normalizeFlags)
	if err != nil {
		return "", fmt.Errorf("normalize url %q: %w", rawURL, err)
	}
	return normalized, nil
}
