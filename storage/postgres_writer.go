package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/utils"
)

const propertiesTable = "properties"

var propertyColumns = []string{
	"link", "short_id", "listing_type", "price", "area", "rooms", "heating",
	"maintenance_fee", "year_built", "elevator", "building_type", "windows",
	"condition", "market", "ownership", "advertiser_type", "district",
	"neighborhood", "street", "current_floor", "total_floors", "features",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// upsertClause refreshes every column except the link key, so re-cleaned
// records replace what an earlier run stored.
var upsertClause = func() string {
	sets := make([]string, 0, len(propertyColumns))
	for _, col := range propertyColumns {
		if col == "link" {
			continue
		}
		sets = append(sets, col+" = EXCLUDED."+col)
	}
	sets = append(sets, "updated_at = NOW()")
	return "ON CONFLICT (link) DO UPDATE SET " + strings.Join(sets, ", ")
}()

// PostgresWriter persists cleaned properties to PostgreSQL.
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: logger}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS properties (
			id              SERIAL PRIMARY KEY,
			link            TEXT        UNIQUE NOT NULL,
			short_id        VARCHAR(8)  NOT NULL,
			listing_type    VARCHAR(16) NOT NULL,
			price           BIGINT,
			area            NUMERIC(10,2),
			rooms           INTEGER,
			heating         TEXT,
			maintenance_fee BIGINT,
			year_built      INTEGER,
			elevator        BOOLEAN,
			building_type   TEXT,
			windows         TEXT,
			condition       TEXT,
			market          TEXT,
			ownership       TEXT,
			advertiser_type TEXT,
			district        TEXT,
			neighborhood    TEXT,
			street          TEXT,
			current_floor   INTEGER,
			total_floors    INTEGER,
			features        JSONB       NOT NULL DEFAULT '{}',
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_properties_listing_type ON properties(listing_type);
		CREATE INDEX IF NOT EXISTS idx_properties_district     ON properties(district);
		CREATE INDEX IF NOT EXISTS idx_properties_price        ON properties(price);
	`)
	return err
}

// Write upserts properties in batches keyed by link. Records without a
// link cannot be keyed and are skipped.
func (pw *PostgresWriter) Write(ctx context.Context, listingType models.ListingType, props []*models.Property) error {
	keyed := make([]*models.Property, 0, len(props))
	for _, p := range props {
		if p.Link != "" {
			keyed = append(keyed, p)
		}
	}
	if skipped := len(props) - len(keyed); skipped > 0 {
		pw.logger.Warn("[postgres] Skipping %d properties without a link", skipped)
	}
	if len(keyed) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(keyed); i += batchSize {
		end := i + batchSize
		if end > len(keyed) {
			end = len(keyed)
		}
		if err := pw.insertBatch(ctx, listingType, keyed[i:end]); err != nil {
			return err
		}
	}
	pw.logger.Info("[postgres] Stored %d %s properties", len(keyed), listingType.Name())
	return nil
}

func (pw *PostgresWriter) insertBatch(ctx context.Context, listingType models.ListingType, batch []*models.Property) error {
	query, args, err := buildUpsert(listingType, batch)
	if err != nil {
		return err
	}
	if _, err := pw.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

func buildUpsert(listingType models.ListingType, batch []*models.Property) (string, []interface{}, error) {
	q := psql.Insert(propertiesTable).Columns(propertyColumns...)

	for _, p := range batch {
		features, err := json.Marshal(p.Flags)
		if err != nil {
			return "", nil, fmt.Errorf("postgres: encode features of %s: %w", p.Link, err)
		}
		q = q.Values(
			p.Link, p.ID, listingType.Name(), p.Price, p.Area, p.Rooms, p.Heating,
			p.MaintenanceFee, p.YearBuilt, p.Elevator, p.BuildingType, p.Windows,
			p.Condition, p.Market, p.Ownership, p.AdvertiserType, p.District,
			p.Neighborhood, p.Street, p.CurrentFloor, p.TotalFloors, string(features),
		)
	}

	q = q.Suffix(upsertClause)

	query, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("postgres: build insert: %w", err)
	}
	return query, args, nil
}

// FetchAll retrieves the stored properties of one listing type.
func (pw *PostgresWriter) FetchAll(ctx context.Context, listingType models.ListingType) ([]*models.Property, error) {
	query, args, err := psql.Select(propertyColumns...).
		From(propertiesTable).
		Where(sq.Eq{"listing_type": listingType.Name()}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build select: %w", err)
	}

	rows, err := pw.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var props []*models.Property
	for rows.Next() {
		p := &models.Property{}
		var (
			lt       string
			features []byte
		)
		if err := rows.Scan(
			&p.Link, &p.ID, &lt, &p.Price, &p.Area, &p.Rooms, &p.Heating,
			&p.MaintenanceFee, &p.YearBuilt, &p.Elevator, &p.BuildingType, &p.Windows,
			&p.Condition, &p.Market, &p.Ownership, &p.AdvertiserType, &p.District,
			&p.Neighborhood, &p.Street, &p.CurrentFloor, &p.TotalFloors, &features,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if err := json.Unmarshal(features, &p.Flags); err != nil {
			return nil, fmt.Errorf("postgres: decode features of %s: %w", p.Link, err)
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
