package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	_ "github.com/lib/pq"

	"github.com/grupoip3/siigo-dashboard-service/internal/model"
)

const cacheTTL = 1 * time.Hour

// RedisClient is the subset of the redis client the repository uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// CompanyRepository handles database operations for companies. Reads
// go through a redis cache; every database operation is wrapped in the
// bounded retry policy because the registry connection is flaky.
type CompanyRepository struct {
	db    *sql.DB
	redis RedisClient
}

// NewCompanyRepository opens the registry database and wires the cache.
// rdb may be nil, which disables caching (useful in tests).
func NewCompanyRepository(dsn string, rdb RedisClient) (*CompanyRepository, error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDB(*config)
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &CompanyRepository{db: db, redis: rdb}, nil
}

// Close closes the database connection and the cache client.
func (r *CompanyRepository) Close() error {
	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			return err
		}
	}
	return r.db.Close()
}

// cachedCompany mirrors model.Company for cache serialization; the
// model itself never marshals the encrypted access key.
type cachedCompany struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Subdomain      string     `json:"subdomain"`
	SiigoUsername  *string    `json:"siigo_username"`
	SiigoAccessKey *string    `json:"siigo_access_key"`
	SiigoPartnerID *string    `json:"siigo_partner_id"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at"`
}

func toCached(c *model.Company) cachedCompany {
	return cachedCompany{
		ID: c.ID, Name: c.Name, Subdomain: c.Subdomain,
		SiigoUsername: c.SiigoUsername, SiigoAccessKey: c.SiigoAccessKey, SiigoPartnerID: c.SiigoPartnerID,
		IsActive: c.IsActive, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt, DeletedAt: c.DeletedAt,
	}
}

func (cc cachedCompany) toModel() *model.Company {
	return &model.Company{
		ID: cc.ID, Name: cc.Name, Subdomain: cc.Subdomain,
		SiigoUsername: cc.SiigoUsername, SiigoAccessKey: cc.SiigoAccessKey, SiigoPartnerID: cc.SiigoPartnerID,
		IsActive: cc.IsActive, CreatedAt: cc.CreatedAt, UpdatedAt: cc.UpdatedAt, DeletedAt: cc.DeletedAt,
	}
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("company:%s", id.String())
}

const companyColumns = `id, name, subdomain, siigo_username, siigo_access_key, siigo_partner_id,
              is_active, created_at, updated_at, deleted_at`

func scanCompany(row *sql.Row) (*model.Company, error) {
	c := &model.Company{}
	err := row.Scan(&c.ID, &c.Name, &c.Subdomain, &c.SiigoUsername, &c.SiigoAccessKey, &c.SiigoPartnerID,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new company.
func (r *CompanyRepository) Create(ctx context.Context, company *model.Company) error {
	company.ID = uuid.New()
	company.IsActive = true
	company.CreatedAt = time.Now()
	company.UpdatedAt = company.CreatedAt

	query := `INSERT INTO companies (id, name, subdomain, siigo_username, siigo_access_key, siigo_partner_id,
              is_active, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := withRetry(ctx, "create", func() (sql.Result, error) {
		return r.db.ExecContext(ctx, query, company.ID, company.Name, company.Subdomain,
			company.SiigoUsername, company.SiigoAccessKey, company.SiigoPartnerID,
			company.IsActive, company.CreatedAt, company.UpdatedAt)
	})
	return err
}

// GetByID retrieves a company by ID, checking the cache first.
func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	if r.redis != nil {
		if cached, err := r.redis.Get(ctx, cacheKey(id)).Result(); err == nil {
			var cc cachedCompany
			if err := json.Unmarshal([]byte(cached), &cc); err == nil {
				return cc.toModel(), nil
			}
		}
	}

	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1 AND deleted_at IS NULL`
	company, err := withRetry(ctx, "get_by_id", func() (*model.Company, error) {
		return scanCompany(r.db.QueryRowContext(ctx, query, id))
	})
	if err != nil || company == nil {
		return company, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(toCached(company)); err == nil {
			r.redis.SetEx(ctx, cacheKey(id), data, cacheTTL)
		}
	}
	return company, nil
}

// GetBySubdomain retrieves a company by its subdomain.
func (r *CompanyRepository) GetBySubdomain(ctx context.Context, subdomain string) (*model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE subdomain = $1 AND deleted_at IS NULL`
	return withRetry(ctx, "get_by_subdomain", func() (*model.Company, error) {
		return scanCompany(r.db.QueryRowContext(ctx, query, subdomain))
	})
}

// UpdateSiigoConfig stores a company's SIIGO credentials. The access
// key must already be encrypted; credential fields are opaque strings
// here.
func (r *CompanyRepository) UpdateSiigoConfig(ctx context.Context, id uuid.UUID, username, encryptedKey, partnerID string) error {
	query := `UPDATE companies
              SET siigo_username = $2, siigo_access_key = $3, siigo_partner_id = $4, updated_at = now()
              WHERE id = $1 AND deleted_at IS NULL`
	result, err := withRetry(ctx, "update_siigo_config", func() (sql.Result, error) {
		return r.db.ExecContext(ctx, query, id, username, encryptedKey, partnerID)
	})
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}

	r.invalidate(ctx, id)
	return nil
}

// ClearSiigoConfig removes a company's SIIGO credentials.
func (r *CompanyRepository) ClearSiigoConfig(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE companies
              SET siigo_username = NULL, siigo_access_key = NULL, siigo_partner_id = NULL, updated_at = now()
              WHERE id = $1 AND deleted_at IS NULL`
	result, err := withRetry(ctx, "clear_siigo_config", func() (sql.Result, error) {
		return r.db.ExecContext(ctx, query, id)
	})
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}

	r.invalidate(ctx, id)
	return nil
}

// Delete performs a soft delete on a company.
func (r *CompanyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE companies SET deleted_at = now(), updated_at = now()
              WHERE id = $1 AND deleted_at IS NULL`
	result, err := withRetry(ctx, "delete", func() (sql.Result, error) {
		return r.db.ExecContext(ctx, query, id)
	})
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *CompanyRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if r.redis != nil {
		r.redis.Del(ctx, cacheKey(id))
	}
}
