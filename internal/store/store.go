// Package store persists article records. The crawler needs exactly three
// operations: insert, point lookup by URL, and an existence check by URL.
// The URL uniqueness constraint enforced at insert time is the authoritative
// guard against concurrent runs ingesting the same article; the existence
// pre-check is an optimization to avoid wasted fetches.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

var (
	// ErrDuplicateURL indicates the article URL is already stored. Callers
	// treat this as expected: another run got there first.
	ErrDuplicateURL = errors.New("article url already exists")
	// ErrNotFound indicates no article exists for the given URL.
	ErrNotFound = errors.New("article not found")
)

// ArticleRecord is one ingested article. Records are written once per
// distinct URL; the archive crawl never revisits stored articles.
type ArticleRecord struct {
	ID       string `db:"id"`
	URL      string `db:"url"`
	SiteName string `db:"site_name"`
	Visited  bool   `db:"visited"`
	// RawDate is the date text as extracted from the page.
	RawDate *string `db:"raw_date"`
	// ParsedDate is the normalized calendar date, when one was found.
	ParsedDate  *time.Time     `db:"parsed_date"`
	Title       *string        `db:"title"`
	Description *string        `db:"description"`
	Paragraphs  pq.StringArray `db:"paragraphs"`
	// Extra carries site-specific fields that have no dedicated column.
	Extra     types.JSONText `db:"extra"`
	CreatedAt time.Time      `db:"created_at"`
}

// Store is the article persistence contract.
type Store interface {
	Insert(ctx context.Context, record *ArticleRecord) error
	ExistsByURL(ctx context.Context, url string) (bool, error)
	FindByURL(ctx context.Context, url string) (*ArticleRecord, error)
}
