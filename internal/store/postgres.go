package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/newscrawl/internal/logger"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum connection lifetime.
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout is the default timeout for ping operations.
	DefaultPingTimeout = 5 * time.Second
)

// uniqueViolation is the postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// Config holds database connection configuration.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Connect opens a PostgreSQL connection pool and verifies it with a ping.
func Connect(cfg Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return db, nil
}

// schema creates the articles table. The UNIQUE constraint on url is the
// last line of defense against concurrent crawls of the same site.
const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id UUID PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	site_name TEXT NOT NULL,
	visited BOOLEAN NOT NULL DEFAULT TRUE,
	raw_date TEXT,
	parsed_date DATE,
	title TEXT,
	description TEXT,
	paragraphs TEXT[],
	extra JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_articles_site_name ON articles (site_name);
CREATE INDEX IF NOT EXISTS idx_articles_parsed_date ON articles (parsed_date);
`

// Postgres implements Store on PostgreSQL.
type Postgres struct {
	db     *sqlx.DB
	logger logger.Interface
}

// NewPostgres creates a PostgreSQL-backed article store.
func NewPostgres(db *sqlx.DB, log logger.Interface) *Postgres {
	return &Postgres{db: db, logger: log}
}

// EnsureSchema creates the articles table and its indexes if missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Insert stores a new article record. A colliding URL returns
// ErrDuplicateURL; callers decide whether that is an error at all.
func (p *Postgres) Insert(ctx context.Context, record *ArticleRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO articles (id, url, site_name, visited, raw_date, parsed_date, title, description, paragraphs, extra, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := p.db.ExecContext(ctx, query,
		record.ID, record.URL, record.SiteName, record.Visited,
		record.RawDate, record.ParsedDate, record.Title, record.Description,
		record.Paragraphs, record.Extra, record.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateURL, record.URL)
		}
		return fmt.Errorf("failed to insert article: %w", err)
	}
	return nil
}

// ExistsByURL reports whether an article with the given URL is stored.
func (p *Postgres) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM articles WHERE url = $1)`
	if err := p.db.GetContext(ctx, &exists, query, url); err != nil {
		return false, fmt.Errorf("failed to check article existence: %w", err)
	}
	return exists, nil
}

// FindByURL returns the stored article for a URL, or ErrNotFound.
func (p *Postgres) FindByURL(ctx context.Context, url string) (*ArticleRecord, error) {
	var record ArticleRecord
	query := `
		SELECT id, url, site_name, visited, raw_date, parsed_date, title, description, paragraphs, extra, created_at
		FROM articles
		WHERE url = $1
	`
	if err := p.db.GetContext(ctx, &record, query, url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
		}
		return nil, fmt.Errorf("failed to find article: %w", err)
	}
	return &record, nil
}
