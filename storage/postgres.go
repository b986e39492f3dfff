package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geoprecio/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

const propertyColumns = `id, fingerprint, comuna, direccion, tipo_propiedad, precio, divisa,
	superficie_util, dormitorios, banos, estacionamientos, latitud, longitud,
	precio_m2_predicho, precio_predicho, created_at, updated_at`

func (s *PostgresStore) UpsertProperty(ctx context.Context, p *models.Property) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query := `
		INSERT INTO propiedades (
			id, fingerprint, comuna, direccion, tipo_propiedad, precio, divisa,
			superficie_util, dormitorios, banos, estacionamientos, latitud, longitud,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW()
		)
		ON CONFLICT (fingerprint) DO UPDATE SET
			comuna = COALESCE(NULLIF(EXCLUDED.comuna, ''), propiedades.comuna),
			direccion = COALESCE(NULLIF(EXCLUDED.direccion, ''), propiedades.direccion),
			tipo_propiedad = COALESCE(NULLIF(EXCLUDED.tipo_propiedad, ''), propiedades.tipo_propiedad),
			precio = COALESCE(EXCLUDED.precio, propiedades.precio),
			divisa = COALESCE(NULLIF(EXCLUDED.divisa, ''), propiedades.divisa),
			superficie_util = COALESCE(EXCLUDED.superficie_util, propiedades.superficie_util),
			dormitorios = COALESCE(EXCLUDED.dormitorios, propiedades.dormitorios),
			banos = COALESCE(EXCLUDED.banos, propiedades.banos),
			estacionamientos = COALESCE(EXCLUDED.estacionamientos, propiedades.estacionamientos),
			latitud = COALESCE(EXCLUDED.latitud, propiedades.latitud),
			longitud = COALESCE(EXCLUDED.longitud, propiedades.longitud),
			updated_at = NOW()
		RETURNING id`

	return s.pool.QueryRow(ctx, query,
		p.ID, p.Fingerprint, p.Comuna, p.Address, p.PropertyType, p.Price, p.Currency,
		p.UsableArea, p.Bedrooms, p.Bathrooms, p.ParkingSpots, p.Lat, p.Lng,
	).Scan(&p.ID)
}

func (s *PostgresStore) GetPropertyByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + distanceSelect() + ` FROM propiedades WHERE id = $1`

	p, err := scanProperty(s.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListCandidates returns every active priced listing with its amenity
// distances, the recommendation scoring pool.
func (s *PostgresStore) ListCandidates(ctx context.Context) ([]models.Property, error) {
	query := `
		SELECT ` + propertyColumns + distanceSelect() + `
		FROM propiedades
		WHERE precio IS NOT NULL
		ORDER BY updated_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProperties(rows)
}

// PropertiesWithoutPrediction selects the backfill batch: priced, located
// listings the ensemble has not estimated yet.
func (s *PostgresStore) PropertiesWithoutPrediction(ctx context.Context, limit int) ([]models.Property, error) {
	query := `
		SELECT ` + propertyColumns + distanceSelect() + `
		FROM propiedades
		WHERE precio_m2_predicho IS NULL
		  AND superficie_util IS NOT NULL
		  AND latitud IS NOT NULL AND longitud IS NOT NULL
		ORDER BY created_at
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProperties(rows)
}

func (s *PostgresStore) UpdatePrediction(ctx context.Context, id uuid.UUID, priceM2, total float64, method string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE propiedades
		SET precio_m2_predicho = $2, precio_predicho = $3, metodo_prediccion = $4, updated_at = NOW()
		WHERE id = $1`,
		id, priceM2, total, method)
	return err
}

func (s *PostgresStore) LoadPOIs(ctx context.Context) ([]models.POI, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tipo_servicio, latitud, longitud
		FROM puntos_interes
		WHERE latitud IS NOT NULL AND longitud IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pois []models.POI
	for rows.Next() {
		var p models.POI
		if err := rows.Scan(&p.Category, &p.Lat, &p.Lng); err != nil {
			return nil, err
		}
		pois = append(pois, p)
	}
	return pois, rows.Err()
}

func (s *PostgresStore) ListComunas(ctx context.Context) ([]models.Comuna, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, nombre, precio_promedio, precio_m2_promedio, total_propiedades, updated_at
		FROM comunas
		ORDER BY nombre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comunas []models.Comuna
	for rows.Next() {
		var c models.Comuna
		if err := rows.Scan(&c.ID, &c.Name, &c.AvgPrice, &c.AvgPriceM2, &c.TotalProperties, &c.UpdatedAt); err != nil {
			return nil, err
		}
		comunas = append(comunas, c)
	}
	return comunas, rows.Err()
}

// RefreshComunaStats recomputes the per-comuna aggregates from the current
// listing pool.
func (s *PostgresStore) RefreshComunaStats(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE comunas c SET
			precio_promedio = agg.precio_promedio,
			precio_m2_promedio = agg.precio_m2_promedio,
			total_propiedades = agg.total,
			updated_at = NOW()
		FROM (
			SELECT comuna,
				AVG(precio) AS precio_promedio,
				AVG(precio / NULLIF(superficie_util, 0)) AS precio_m2_promedio,
				COUNT(*) AS total
			FROM propiedades
			WHERE precio IS NOT NULL
			GROUP BY comuna
		) agg
		WHERE c.nombre = agg.comuna`)
	return err
}

func distanceSelect() string {
	var b strings.Builder
	for _, dc := range distanceColumns {
		b.WriteString(", ")
		b.WriteString(dc.Column)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var p models.Property
	dists := make([]*float64, len(distanceColumns))
	dest := []any{
		&p.ID, &p.Fingerprint, &p.Comuna, &p.Address, &p.PropertyType, &p.Price, &p.Currency,
		&p.UsableArea, &p.Bedrooms, &p.Bathrooms, &p.ParkingSpots, &p.Lat, &p.Lng,
		&p.PredictedM2, &p.PredictedTotal, &p.CreatedAt, &p.UpdatedAt,
	}
	for i := range dists {
		dest = append(dest, &dists[i])
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	p.Distances = distancesFrom(dists)
	return &p, nil
}

func scanProperties(rows pgx.Rows) ([]models.Property, error) {
	var out []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
