package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rqlite/gorqlite"
)

func New(conn *gorqlite.Connection) *Queries {
	return &Queries{
		conn: conn,
		now:  time.Now,
	}
}

type Queries struct {
	conn *gorqlite.Connection
	now  func() time.Time
}

type Keyword struct {
	Keyword string
	// Embedding is nil when the keyword was stored without one.
	Embedding []float32
}

// KeywordPut replaces the stored keyword list. The position of each keyword
// is kept, so row i of the embeddings always belongs to keyword i.
func (q *Queries) KeywordPut(ctx context.Context, keywords []Keyword) (err error) {
	now := q.now().UTC()
	statements := make([]gorqlite.ParameterizedStatement, len(keywords)+1)
	statements[0] = gorqlite.ParameterizedStatement{
		Query: `delete from keyword`,
	}
	for i, k := range keywords {
		var embedding any
		if k.Embedding != nil {
			embeddingJSON, err := json.Marshal(k.Embedding)
			if err != nil {
				return fmt.Errorf("failed to marshal embedding: %w", err)
			}
			embedding = string(embeddingJSON)
		}
		statements[i+1] = gorqlite.ParameterizedStatement{
			Query:     `insert into keyword (idx, keyword, embedding, last_updated_at) values (?, ?, ?, ?)`,
			Arguments: []any{i, k.Keyword, embedding, now},
		}
	}
	if _, err = q.conn.WriteParameterizedContext(ctx, statements); err != nil {
		return err
	}
	return nil
}

func (q *Queries) KeywordList(ctx context.Context) (keywords []Keyword, err error) {
	stmt := gorqlite.ParameterizedStatement{
		Query: `select keyword, coalesce(embedding, '') from keyword order by idx asc`,
	}
	result, err := q.conn.QueryOneParameterizedContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	for result.Next() {
		var k Keyword
		var embeddingJSON string
		if err = result.Scan(&k.Keyword, &embeddingJSON); err != nil {
			return nil, err
		}
		if embeddingJSON != "" {
			if err = json.Unmarshal([]byte(embeddingJSON), &k.Embedding); err != nil {
				return nil, fmt.Errorf("failed to unmarshal embedding of %q: %w", k.Keyword, err)
			}
		}
		keywords = append(keywords, k)
	}
	return keywords, nil
}

func (q *Queries) KeywordCount(ctx context.Context) (count int64, err error) {
	result, err := q.conn.QueryOneParameterizedContext(ctx, gorqlite.ParameterizedStatement{
		Query: `select count(*) from keyword`,
	})
	if err != nil {
		return 0, err
	}
	if !result.Next() {
		return 0, fmt.Errorf("expected a count")
	}
	err = result.Scan(&count)
	return count, err
}
