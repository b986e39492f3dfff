package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"geoprecio/models"
)

// SQLiteStore is the file-local backend for development and tests. It
// mirrors the Postgres schema closely enough that the rest of the service
// cannot tell them apart.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS propiedades (
		id TEXT PRIMARY KEY,
		fingerprint TEXT UNIQUE,
		comuna TEXT,
		direccion TEXT,
		tipo_propiedad TEXT,
		precio REAL,
		divisa TEXT DEFAULT 'CLP',
		superficie_util REAL,
		dormitorios INTEGER,
		banos INTEGER,
		estacionamientos INTEGER,
		latitud REAL,
		longitud REAL,
		dist_transporte_metro_m REAL,
		dist_educacion_min_m REAL,
		dist_salud_min_m REAL,
		dist_areas_verdes_m REAL,
		dist_seguridad_min_m REAL,
		dist_comercio_m REAL,
		precio_m2_predicho REAL,
		precio_predicho REAL,
		metodo_prediccion TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS comunas (
		id INTEGER PRIMARY KEY,
		nombre TEXT UNIQUE,
		precio_promedio REAL,
		precio_m2_promedio REAL,
		total_propiedades INTEGER DEFAULT 0,
		updated_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS puntos_interes (
		id INTEGER PRIMARY KEY,
		tipo_servicio TEXT NOT NULL,
		nombre TEXT,
		latitud REAL NOT NULL,
		longitud REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_propiedades_comuna ON propiedades(comuna);
	CREATE INDEX IF NOT EXISTS idx_propiedades_sin_prediccion
		ON propiedades(created_at) WHERE precio_m2_predicho IS NULL;
	CREATE INDEX IF NOT EXISTS idx_poi_tipo ON puntos_interes(tipo_servicio);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) UpsertProperty(ctx context.Context, p *models.Property) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO propiedades (
			id, fingerprint, comuna, direccion, tipo_propiedad, precio, divisa,
			superficie_util, dormitorios, banos, estacionamientos, latitud, longitud
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (fingerprint) DO UPDATE SET
			comuna = COALESCE(NULLIF(excluded.comuna, ''), comuna),
			direccion = COALESCE(NULLIF(excluded.direccion, ''), direccion),
			tipo_propiedad = COALESCE(NULLIF(excluded.tipo_propiedad, ''), tipo_propiedad),
			precio = COALESCE(excluded.precio, precio),
			divisa = COALESCE(NULLIF(excluded.divisa, ''), divisa),
			superficie_util = COALESCE(excluded.superficie_util, superficie_util),
			dormitorios = COALESCE(excluded.dormitorios, dormitorios),
			banos = COALESCE(excluded.banos, banos),
			estacionamientos = COALESCE(excluded.estacionamientos, estacionamientos),
			latitud = COALESCE(excluded.latitud, latitud),
			longitud = COALESCE(excluded.longitud, longitud),
			updated_at = CURRENT_TIMESTAMP`,
		p.ID.String(), p.Fingerprint, p.Comuna, p.Address, p.PropertyType, p.Price, p.Currency,
		p.UsableArea, p.Bedrooms, p.Bathrooms, p.ParkingSpots, p.Lat, p.Lng)
	if err != nil {
		return err
	}

	// The conflict path keeps the original row id.
	return s.db.QueryRowContext(ctx,
		`SELECT id FROM propiedades WHERE fingerprint = ?`, p.Fingerprint).
		Scan(&sqliteUUID{&p.ID})
}

func (s *SQLiteStore) ListCandidates(ctx context.Context) ([]models.Property, error) {
	return s.queryProperties(ctx, `
		SELECT `+propertyColumns+distanceSelect()+`
		FROM propiedades
		WHERE precio IS NOT NULL
		ORDER BY updated_at DESC`)
}

func (s *SQLiteStore) PropertiesWithoutPrediction(ctx context.Context, limit int) ([]models.Property, error) {
	return s.queryProperties(ctx, `
		SELECT `+propertyColumns+distanceSelect()+`
		FROM propiedades
		WHERE precio_m2_predicho IS NULL
		  AND superficie_util IS NOT NULL
		  AND latitud IS NOT NULL AND longitud IS NOT NULL
		ORDER BY created_at
		LIMIT ?`, limit)
}

func (s *SQLiteStore) UpdatePrediction(ctx context.Context, id uuid.UUID, priceM2, total float64, method string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE propiedades
		SET precio_m2_predicho = ?, precio_predicho = ?, metodo_prediccion = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		priceM2, total, method, id.String())
	return err
}

func (s *SQLiteStore) LoadPOIs(ctx context.Context) ([]models.POI, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tipo_servicio, latitud, longitud FROM puntos_interes`)
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

// InsertPOI loads one point of interest, used by import tooling and tests.
func (s *SQLiteStore) InsertPOI(ctx context.Context, p models.POI) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO puntos_interes (tipo_servicio, latitud, longitud) VALUES (?, ?, ?)`,
		p.Category, p.Lat, p.Lng)
	return err
}

func (s *SQLiteStore) ListComunas(ctx context.Context) ([]models.Comuna, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nombre, precio_promedio, precio_m2_promedio, total_propiedades, updated_at
		FROM comunas ORDER BY nombre`)
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

func (s *SQLiteStore) RefreshComunaStats(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comunas (nombre, precio_promedio, precio_m2_promedio, total_propiedades, updated_at)
		SELECT comuna,
			AVG(precio),
			AVG(precio / NULLIF(superficie_util, 0)),
			COUNT(*),
			CURRENT_TIMESTAMP
		FROM propiedades
		WHERE precio IS NOT NULL AND comuna IS NOT NULL AND comuna != ''
		GROUP BY comuna
		ON CONFLICT (nombre) DO UPDATE SET
			precio_promedio = excluded.precio_promedio,
			precio_m2_promedio = excluded.precio_m2_promedio,
			total_propiedades = excluded.total_propiedades,
			updated_at = excluded.updated_at`)
	return err
}

func (s *SQLiteStore) queryProperties(ctx context.Context, query string, args ...any) ([]models.Property, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Property
	for rows.Next() {
		var p models.Property
		var id sqliteUUID
		id.dst = &p.ID
		dists := make([]*float64, len(distanceColumns))
		var createdAt, updatedAt sql.NullTime
		dest := []any{
			&id, &p.Fingerprint, &p.Comuna, &p.Address, &p.PropertyType, &p.Price, &p.Currency,
			&p.UsableArea, &p.Bedrooms, &p.Bathrooms, &p.ParkingSpots, &p.Lat, &p.Lng,
			&p.PredictedM2, &p.PredictedTotal, &createdAt, &updatedAt,
		}
		for i := range dists {
			dest = append(dest, &dists[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		p.CreatedAt = createdAt.Time
		p.UpdatedAt = updatedAt.Time
		p.Distances = distancesFrom(dists)
		out = append(out, p)
	}
	return out, rows.Err()
}

// sqliteUUID scans a TEXT uuid column.
type sqliteUUID struct {
	dst *uuid.UUID
}

func (u *sqliteUUID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*u.dst = id
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*u.dst = id
	case nil:
		*u.dst = uuid.Nil
	}
	return nil
}
