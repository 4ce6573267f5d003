package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// inChunk bounds the number of bind parameters per statement; sqlite and
// postgres both cap it.
const inChunk = 500

func chunks(keys []string) [][]string {
	var out [][]string
	for len(keys) > inChunk {
		out = append(out, keys[:inChunk])
		keys = keys[inChunk:]
	}
	if len(keys) > 0 {
		out = append(out, keys)
	}
	return out
}

// idsIn selects the ids of table rows whose column matches any of keys.
func idsIn(ctx context.Context, q sqlx.ExtContext, table, column string, keys []string) ([]string, error) {
	var ids []string
	for _, part := range chunks(keys) {
		query, args, err := sqlx.In(`SELECT id FROM `+table+` WHERE `+column+` IN (?) ORDER BY id`, part)
		if err != nil {
			return nil, err
		}
		var got []string
		if err := sqlx.SelectContext(ctx, q, &got, q.Rebind(query), args...); err != nil {
			return nil, err
		}
		ids = append(ids, got...)
	}
	return ids, nil
}

// deleteIn deletes table rows whose column matches any of keys and reports
// how many went.
func deleteIn(ctx context.Context, q sqlx.ExtContext, table, column string, keys []string) (int64, error) {
	var total int64
	for _, part := range chunks(keys) {
		query, args, err := sqlx.In(`DELETE FROM `+table+` WHERE `+column+` IN (?)`, part)
		if err != nil {
			return total, err
		}
		res, err := q.ExecContext(ctx, q.Rebind(query), args...)
		if err != nil {
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
