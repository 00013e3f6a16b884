package storage

import (
	"context"

	"NS/configs"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// SQLStore keeps one node's table in PostgreSQL.
type SQLStore struct {
	ctx   context.Context
	pool  *pgxpool.Pool
	table string
}

func newSQLStore(owner string) *SQLStore {
	res := &SQLStore{ctx: context.Background(), table: "nodekv_" + owner}
	config, err := pgxpool.ParseConfig(configs.PostgreSQLLink)
	configs.CheckError(err)
	connCtx, cancel := context.WithTimeout(res.ctx, configs.BackendTimeout)
	defer cancel()
	res.pool, err = pgxpool.ConnectConfig(connCtx, config)
	configs.CheckError(err)
	res.mustExec("CREATE TABLE IF NOT EXISTS " + res.table + " (key TEXT PRIMARY KEY, value TEXT NOT NULL)")
	return res
}

func (c *SQLStore) mustExec(sql string, args ...interface{}) {
	_, err := c.pool.Exec(c.ctx, sql, args...)
	configs.CheckError(err)
}

func (c *SQLStore) Read(key string) (string, bool) {
	var v string
	err := c.pool.QueryRow(c.ctx, "SELECT value FROM "+c.table+" WHERE key = $1", key).Scan(&v)
	if err == pgx.ErrNoRows {
		return "", false
	}
	configs.CheckError(err)
	return v, true
}

func (c *SQLStore) Update(key string, value string) bool {
	c.mustExec("INSERT INTO "+c.table+" (key, value) VALUES ($1, $2) "+
		"ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value", key, value)
	return true
}

func (c *SQLStore) Delete(key string) bool {
	tag, err := c.pool.Exec(c.ctx, "DELETE FROM "+c.table+" WHERE key = $1", key)
	configs.CheckError(err)
	return tag.RowsAffected() > 0
}

func (c *SQLStore) Purge() {
	c.mustExec("TRUNCATE " + c.table)
}

func (c *SQLStore) Close() {
	c.pool.Close()
}
