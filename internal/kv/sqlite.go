package kv

import (
	"database/sql"
	"errors"
	"time"
)

// SQLiteBucket stores documents in the kv_store table, one row per key.
type SQLiteBucket struct {
	db     *sql.DB
	bucket string
}

// NewSQLiteBucket returns the bucket called name in db. The schema is owned
// by the db package.
func NewSQLiteBucket(db *sql.DB, name string) *SQLiteBucket {
	return &SQLiteBucket{db: db, bucket: name}
}

func (b *SQLiteBucket) Put(key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}
	_, err = b.db.Exec(
		`INSERT OR REPLACE INTO kv_store (bucket, key, value, updated_at) VALUES (?, ?, ?, ?)`,
		b.bucket, key, string(data), time.Now().Unix(),
	)
	return err
}

func (b *SQLiteBucket) Get(key string, out any) (bool, error) {
	var data string
	err := b.db.QueryRow(
		`SELECT value FROM kv_store WHERE bucket = ? AND key = ?`, b.bucket, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, decode(key, []byte(data), out)
}

func (b *SQLiteBucket) Delete(key string) (bool, error) {
	res, err := b.db.Exec(`DELETE FROM kv_store WHERE bucket = ? AND key = ?`, b.bucket, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (b *SQLiteBucket) Keys() ([]string, error) {
	rows, err := b.db.Query(`SELECT key FROM kv_store WHERE bucket = ? ORDER BY key`, b.bucket)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
