// Package store persists parsed documents and their records in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dgallion1/partidas/internal/budget"
)

// Store wraps a single-connection SQLite database.
type Store struct {
	db *sql.DB
}

// Document is one parsed input as stored for a job.
type Document struct {
	ID          string
	JobID       string
	Position    int // Index of the document within its job's upload
	Filename    string
	ContentHash string // Cache key: document bytes plus parse settings
	Pages       int
	Err         string // Non-empty when the document could not be read
	Records     []budget.Record
}

// Open opens (or creates) the database at path. ":memory:" is supported;
// the pool is pinned to one connection so the in-memory database survives.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the schema if missing.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys=ON`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			filename TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			pages INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_job ON documents(job_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash)`,
		`CREATE TABLE IF NOT EXISTS records (
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			seccion TEXT NOT NULL,
			seccion_nombre TEXT NOT NULL,
			subseccion TEXT NOT NULL,
			subseccion_nombre TEXT NOT NULL,
			clave TEXT NOT NULL,
			descripcion TEXT NOT NULL,
			unidad TEXT NOT NULL,
			cantidad REAL,
			precio_unitario REAL,
			total REAL,
			titulo TEXT NOT NULL,
			fecha TEXT NOT NULL,
			archivo TEXT NOT NULL,
			PRIMARY KEY (document_id, seq)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// SaveDocument stores a document and its records in one transaction and
// returns the generated document ID.
func (s *Store) SaveDocument(ctx context.Context, d Document) (string, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, job_id, position, filename, content_hash, pages, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.JobID, d.Position, d.Filename, d.ContentHash, d.Pages, d.Err, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (
		document_id, seq, seccion, seccion_nombre, subseccion, subseccion_nombre, clave, descripcion,
		unidad, cantidad, precio_unitario, total, titulo, fecha, archivo
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare records: %w", err)
	}
	defer stmt.Close()

	for i, r := range d.Records {
		_, err := stmt.ExecContext(ctx, d.ID, i,
			r.Seccion, r.SeccionNombre, r.Subseccion, r.SubseccionNombre, r.Clave, r.Descripcion,
			r.Unidad, nullable(r.Cantidad), nullable(r.PrecioUnitario), nullable(r.Total),
			r.Titulo, r.Fecha, r.Archivo)
		if err != nil {
			return "", fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return d.ID, nil
}

const recordColumns = `r.seccion, r.seccion_nombre, r.subseccion, r.subseccion_nombre, r.clave, r.descripcion,
	r.unidad, r.cantidad, r.precio_unitario, r.total, r.titulo, r.fecha, r.archivo`

// JobRecords returns every record of a job, documents in upload order and
// records in extraction order.
func (s *Store) JobRecords(ctx context.Context, jobID string) ([]budget.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+`
		FROM records r JOIN documents d ON d.id = r.document_id
		WHERE d.job_id = ?
		ORDER BY d.position, r.seq`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query job records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// HasJob reports whether any document was stored for jobID.
func (s *Store) HasJob(ctx context.Context, jobID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE job_id = ?`, jobID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count job documents: %w", err)
	}
	return n > 0, nil
}

// DocumentInfo summarizes a stored document without its records.
type DocumentInfo struct {
	ID        string    `json:"id"`
	Position  int       `json:"position"`
	Filename  string    `json:"filename"`
	Pages     int       `json:"pages"`
	Records   int       `json:"records"`
	Err       string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// JobDocuments lists the documents of a job in upload order.
func (s *Store) JobDocuments(ctx context.Context, jobID string) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT d.id, d.position, d.filename, d.pages, d.error, d.created_at,
			(SELECT COUNT(*) FROM records r WHERE r.document_id = d.id)
		FROM documents d WHERE d.job_id = ? ORDER BY d.position`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query job documents: %w", err)
	}
	defer rows.Close()

	out := make([]DocumentInfo, 0)
	for rows.Next() {
		var d DocumentInfo
		var created int64
		if err := rows.Scan(&d.ID, &d.Position, &d.Filename, &d.Pages, &d.Err, &created, &d.Records); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.CreatedAt = time.Unix(0, created)
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteJob removes a job's documents and their records. It returns the
// number of documents deleted.
func (s *Store) DeleteJob(ctx context.Context, jobID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE document_id IN (SELECT id FROM documents WHERE job_id = ?)`, jobID); err != nil {
		return 0, fmt.Errorf("delete job records: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE job_id = ?`, jobID)
	if err != nil {
		return 0, fmt.Errorf("delete job documents: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete job documents: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(n), nil
}

// Cached is a stored parse result that can stand in for re-parsing the same
// bytes.
type Cached struct {
	Records []budget.Record
	Pages   int
}

// CachedRecords returns the records and page count of the most recent
// readable document stored under cacheKey. found is false when no such
// document exists.
func (s *Store) CachedRecords(ctx context.Context, cacheKey string) (c Cached, found bool, err error) {
	var docID string
	err = s.db.QueryRowContext(ctx,
		`SELECT id, pages FROM documents WHERE content_hash = ? AND error = '' ORDER BY created_at DESC LIMIT 1`,
		cacheKey).Scan(&docID, &c.Pages)
	if err == sql.ErrNoRows {
		return Cached{}, false, nil
	}
	if err != nil {
		return Cached{}, false, fmt.Errorf("lookup hash: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+`
		FROM records r WHERE r.document_id = ? ORDER BY r.seq`, docID)
	if err != nil {
		return Cached{}, false, fmt.Errorf("query cached records: %w", err)
	}
	defer rows.Close()
	c.Records, err = scanRecords(rows)
	if err != nil {
		return Cached{}, false, err
	}
	return c, true, nil
}

func scanRecords(rows *sql.Rows) ([]budget.Record, error) {
	out := make([]budget.Record, 0)
	for rows.Next() {
		var r budget.Record
		var cantidad, precio, total sql.NullFloat64
		if err := rows.Scan(&r.Seccion, &r.SeccionNombre, &r.Subseccion, &r.SubseccionNombre, &r.Clave,
			&r.Descripcion, &r.Unidad, &cantidad, &precio, &total, &r.Titulo, &r.Fecha, &r.Archivo); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Cantidad = fromNullable(cantidad)
		r.PrecioUnitario = fromNullable(precio)
		r.Total = fromNullable(total)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return budget.Float(v.Float64)
}
