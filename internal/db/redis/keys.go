package redis

import (
	"context"
	"strings"

	"github.com/kailas-cloud/prodsearch/internal/db"
)

const (
	scanCount = 200
	// delBatch bounds the number of keys per DEL command.
	delBatch = 500
)

// ScanPrefix iterates keys starting with prefix using SCAN MATCH.
func (s *Store) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(prefix) + "*"

	var keys []string
	var cursor uint64
	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(scanCount).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

// Del deletes keys in batches and returns the number removed.
func (s *Store) Del(ctx context.Context, keys ...string) (int, error) {
	var deleted int
	for start := 0; start < len(keys); start += delBatch {
		end := min(start+delBatch, len(keys))
		cmd := s.b().Del().Key(keys[start:end]...).Build()
		n, err := s.do(ctx, cmd).AsInt64()
		if err != nil {
			return deleted, &db.Error{Op: db.OpDel, Err: err}
		}
		deleted += int(n)
	}
	return deleted, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob quotes SCAN MATCH metacharacters so prefix is matched literally.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
