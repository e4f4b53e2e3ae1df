package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/finneas-io/edgar/adapter/database"
	"github.com/finneas-io/edgar/domain/company"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresDB struct {
	conn *pgxpool.Pool
}

func ConnString(host, port, name, user, pass string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
}

func New(url string) (*postgresDB, error) {

	conn, err := pgxpool.New(context.Background(), url)
	if err != nil {
		return nil, err
	}

	// pgxpool connects lazily, make sure the database is reachable
	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	return &postgresDB{conn: conn}, nil
}

func (db *postgresDB) Close() error {
	db.conn.Close()
	return nil
}

func (db *postgresDB) CreateBaseTables() error {

	_, err := db.conn.Exec(context.Background(), `CREATE TABLE IF NOT EXISTS company (
		cik BIGINT PRIMARY KEY,
		title VARCHAR(200) NOT NULL
	);`)
	if err != nil {
		return err
	}

	_, err = db.conn.Exec(context.Background(), `CREATE TABLE IF NOT EXISTS ticker (
		value VARCHAR(20) PRIMARY KEY,
		company_cik BIGINT REFERENCES company(cik) ON DELETE CASCADE
	);`)
	if err != nil {
		return err
	}

	_, err = db.conn.Exec(context.Background(), `CREATE TABLE IF NOT EXISTS sync_run (
		id UUID PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		resolved INTEGER NOT NULL,
		missing INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);`)
	if err != nil {
		return err
	}

	return nil
}

// InsertCompany stores the company and points its ticker at it. Existing
// rows are updated so repeated syncs follow ticker changes.
func (db *postgresDB) InsertCompany(cmp *company.Company) error {

	tx, err := db.conn.Begin(context.Background())
	if err != nil {
		return err
	}
	defer tx.Rollback(context.Background())

	_, err = tx.Exec(
		context.Background(),
		`INSERT INTO company (cik, title) VALUES ($1, $2)
		ON CONFLICT (cik) DO UPDATE SET title = EXCLUDED.title;`,
		int64(cmp.Cik),
		cmp.Title,
	)
	if err != nil {
		return errorWrapper(err)
	}

	_, err = tx.Exec(
		context.Background(),
		`INSERT INTO ticker (value, company_cik) VALUES ($1, $2)
		ON CONFLICT (value) DO UPDATE SET company_cik = EXCLUDED.company_cik;`,
		strings.ToUpper(cmp.Ticker),
		int64(cmp.Cik),
	)
	if err != nil {
		return errorWrapper(err)
	}

	return tx.Commit(context.Background())
}

func (db *postgresDB) GetCompany(ticker string) (*company.Company, error) {

	var cik int64
	cmp := &company.Company{}
	err := db.conn.QueryRow(
		context.Background(),
		`SELECT c.cik, t.value, c.title FROM ticker t
		JOIN company c ON c.cik = t.company_cik
		WHERE t.value = $1;`,
		strings.ToUpper(ticker),
	).Scan(&cik, &cmp.Ticker, &cmp.Title)
	if err != nil {
		return nil, errorWrapper(err)
	}
	cmp.Cik = uint32(cik)

	return cmp, nil
}

func (db *postgresDB) GetCompanies() ([]*company.Company, error) {

	rows, err := db.conn.Query(
		context.Background(),
		`SELECT c.cik, t.value, c.title FROM ticker t
		JOIN company c ON c.cik = t.company_cik
		ORDER BY t.value;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cmps := []*company.Company{}
	for rows.Next() {
		var cik int64
		c := &company.Company{}
		if err := rows.Scan(&cik, &c.Ticker, &c.Title); err != nil {
			return nil, err
		}
		c.Cik = uint32(cik)
		cmps = append(cmps, c)
	}

	return cmps, rows.Err()
}

func (db *postgresDB) InsertSyncRun(run *database.SyncRun) error {

	_, err := db.conn.Exec(
		context.Background(),
		`INSERT INTO sync_run (id, started_at, finished_at, resolved, missing, failed)
		VALUES ($1, $2, $3, $4, $5, $6);`,
		run.Id,
		run.StartedAt,
		run.FinishedAt,
		run.Resolved,
		run.Missing,
		run.Failed,
	)
	return errorWrapper(err)
}

func errorWrapper(err error) error {

	// check if error is even present
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return database.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// SQL Error code for violated unique constraint
		if pgErr.Code == "23505" {
			return database.ErrDuplicate
		}
	}

	return err
}
