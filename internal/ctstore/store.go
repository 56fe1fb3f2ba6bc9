// Package ctstore is the persistence layer for a running log: leaf
// hashes and signed tree heads go to Postgres for durability, the
// current signed tree head is cached in Redis so readers don't hit
// Postgres on every request.
package ctstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/kindlyrobotics/ctlog/merkle"
)

const currentSTHKey = "ctlog:current_sth"

// Store wraps a Postgres connection (leaf and tree-head history) and a
// Redis client (current signed tree head cache).
type Store struct {
	pg    *sql.DB
	redis *redis.Client
}

// New opens the Postgres and Redis connections configured by
// DATABASE_URL and REDIS_URL, as ctstore is an ambient/IO boundary
// component, not the pure core.
func New() (*Store, error) {
	pgURL := os.Getenv("DATABASE_URL")
	if pgURL == "" {
		return nil, fmt.Errorf("ctstore: DATABASE_URL environment variable is required")
	}

	pg, err := sql.Open("postgres", pgURL)
	if err != nil {
		return nil, fmt.Errorf("ctstore: failed to connect to postgres: %w", err)
	}
	pg.SetMaxOpenConns(25)
	pg.SetMaxIdleConns(5)
	pg.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pg.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ctstore: failed to ping postgres: %w", err)
	}
	log.Println("[ctstore] postgres connection established")

	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisAddr = strings.TrimPrefix(strings.TrimPrefix(redisAddr, "redis://"), "rediss://")

	rdb := redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	return &Store{pg: pg, redis: rdb}, nil
}

// Close releases both connections.
func (s *Store) Close() error {
	if err := s.redis.Close(); err != nil {
		return err
	}
	return s.pg.Close()
}

// Migrate creates the leaves and tree_heads tables if absent.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pg.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS leaves (
			leaf_index  BIGINT PRIMARY KEY,
			leaf_hash   BYTEA NOT NULL UNIQUE,
			element     BYTEA NOT NULL,
			inserted_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS tree_heads (
			size       BIGINT PRIMARY KEY,
			root_hash  BYTEA NOT NULL,
			signature  BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("ctstore: migrate: %w", err)
	}
	return nil
}

// AppendLeaf records a freshly-inserted leaf's element bytes and hash.
func (s *Store) AppendLeaf(ctx context.Context, index uint64, elementHash merkle.Hash, element []byte) error {
	_, err := s.pg.ExecContext(ctx,
		`INSERT INTO leaves (leaf_index, leaf_hash, element) VALUES ($1, $2, $3)
		 ON CONFLICT (leaf_hash) DO NOTHING`,
		index, []byte(elementHash), element,
	)
	if err != nil {
		return fmt.Errorf("ctstore: append leaf: %w", err)
	}
	return nil
}

// LoadLeaves returns every stored leaf's element bytes, ordered by
// index, for rebuilding a tree on startup.
func (s *Store) LoadLeaves(ctx context.Context) ([][]byte, error) {
	rows, err := s.pg.QueryContext(ctx, `SELECT element FROM leaves ORDER BY leaf_index ASC`)
	if err != nil {
		return nil, fmt.Errorf("ctstore: load leaves: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var elem []byte
		if err := rows.Scan(&elem); err != nil {
			return nil, fmt.Errorf("ctstore: scan leaf: %w", err)
		}
		out = append(out, elem)
	}
	return out, rows.Err()
}

// RecordTreeHead persists a signed tree head and refreshes the Redis
// cache entry that GetCurrentSTH reads.
func (s *Store) RecordTreeHead(ctx context.Context, sth merkle.SignedTreeHead) error {
	_, err := s.pg.ExecContext(ctx,
		`INSERT INTO tree_heads (size, root_hash, signature) VALUES ($1, $2, $3)
		 ON CONFLICT (size) DO NOTHING`,
		sth.Size(), []byte(sth.RootHash()), sth.Signature(),
	)
	if err != nil {
		return fmt.Errorf("ctstore: record tree head: %w", err)
	}

	data, err := sth.MarshalBinary()
	if err != nil {
		return fmt.Errorf("ctstore: marshal tree head: %w", err)
	}
	if err := s.redis.Set(ctx, currentSTHKey, data, 0).Err(); err != nil {
		log.Printf("[ctstore] warning: failed to cache current STH in redis: %v", err)
	}
	return nil
}

// GetCurrentSTH reads the cached current signed tree head from Redis,
// given the digest's output size for decoding.
func (s *Store) GetCurrentSTH(ctx context.Context, hashSize int) (merkle.SignedTreeHead, bool) {
	data, err := s.redis.Get(ctx, currentSTHKey).Bytes()
	if err != nil {
		return merkle.SignedTreeHead{}, false
	}
	sth, err := merkle.UnmarshalSignedTreeHead(data, hashSize)
	if err != nil {
		log.Printf("[ctstore] warning: failed to decode cached STH: %v", err)
		return merkle.SignedTreeHead{}, false
	}
	return sth, true
}

// TreeHeadAtSize looks up a historical signed tree head by its
// logical size.
func (s *Store) TreeHeadAtSize(ctx context.Context, size uint64) (merkle.SignedTreeHead, bool, error) {
	var root, sig []byte
	err := s.pg.QueryRowContext(ctx,
		`SELECT root_hash, signature FROM tree_heads WHERE size = $1`, size,
	).Scan(&root, &sig)
	if err == sql.ErrNoRows {
		return merkle.SignedTreeHead{}, false, nil
	}
	if err != nil {
		return merkle.SignedTreeHead{}, false, fmt.Errorf("ctstore: tree head at size: %w", err)
	}
	thBytes, err := (merkle.TreeHead{Size: size, Root: root}).MarshalBinary()
	if err != nil {
		return merkle.SignedTreeHead{}, false, err
	}
	var sigLen [4]byte
	binary.BigEndian.PutUint32(sigLen[:], uint32(len(sig)))
	wire := append(thBytes, sigLen[:]...)
	wire = append(wire, sig...)

	sth, err := merkle.UnmarshalSignedTreeHead(wire, len(root))
	if err != nil {
		return merkle.SignedTreeHead{}, false, err
	}
	return sth, true, nil
}
