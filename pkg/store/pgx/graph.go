package pgx

import (
	"context"
	"fmt"
	"strings"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/store"
)

// WriteBatch stores one extraction batch under a fresh graph id. Nodes
// merge by (graph_id, entity_id); edges are appended.
func (s *Storage) WriteBatch(
	ctx context.Context,
	entities []common.Entity,
	relationships []common.Relationship,
	ownerID string,
) (string, error) {
	suffix, err := gonanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 6)
	if err != nil {
		return "", &store.StoreUnavailableError{Op: "write graph batch", Err: err}
	}
	graphID := fmt.Sprintf("%s_%s_%s", ownerID, time.Now().Format("20060102150405"), suffix)

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return "", &store.StoreUnavailableError{Op: "write graph batch", Err: err}
	}
	defer tx.Rollback(ctx)

	err = store.ChunkRange(len(entities), upsertBatchSize, func(start, end int) error {
		batch := &pgxv5.Batch{}
		for i := start; i < end; i++ {
			batch.Queue(
				`INSERT INTO graph_entities (graph_id, entity_id, owner_id, text, type, chunk_index)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 ON CONFLICT (graph_id, entity_id) DO UPDATE
				 SET text = EXCLUDED.text, type = EXCLUDED.type`,
				graphID,
				entities[i].ID,
				ownerID,
				entities[i].Text,
				string(entities[i].Type),
				entities[i].ChunkIndex,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return "", &store.StoreUnavailableError{Op: "write graph batch", Err: err}
	}

	err = store.ChunkRange(len(relationships), upsertBatchSize, func(start, end int) error {
		batch := &pgxv5.Batch{}
		for i := start; i < end; i++ {
			batch.Queue(
				`INSERT INTO graph_relationships (graph_id, owner_id, source_id, target_id, type, context, value)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				graphID,
				ownerID,
				relationships[i].SourceID,
				relationships[i].TargetID,
				relationships[i].Type,
				relationships[i].Context,
				relationships[i].Value,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return "", &store.StoreUnavailableError{Op: "write graph batch", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", &store.StoreUnavailableError{Op: "write graph batch", Err: err}
	}
	return graphID, nil
}

// QueryFacts returns facts whose endpoints match any term, deduplicated by
// (entity1, relationship, entity2) with the first occurrence winning, then
// truncated to limit.
func (s *Storage) QueryFacts(
	ctx context.Context,
	terms []string,
	ownerID string,
	limit int,
) ([]common.Fact, error) {
	var facts []common.Fact
	for _, term := range store.DedupeStrings(terms) {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}

		rows, err := s.conn.Query(ctx,
			`SELECT se.text, r.type, te.text, r.value, r.context
			 FROM graph_relationships r
			 JOIN graph_entities se ON se.graph_id = r.graph_id AND se.entity_id = r.source_id
			 JOIN graph_entities te ON te.graph_id = r.graph_id AND te.entity_id = r.target_id
			 WHERE r.owner_id = $1
			   AND (se.text ILIKE '%' || $2 || '%' OR te.text ILIKE '%' || $2 || '%')
			 ORDER BY r.id`,
			ownerID, term,
		)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var f common.Fact
			if err := rows.Scan(&f.Entity1, &f.Relationship, &f.Entity2, &f.Value, &f.Context); err != nil {
				rows.Close()
				return nil, err
			}
			facts = append(facts, f)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	facts = store.DedupeFactsFirstWins(facts)
	if limit > 0 && len(facts) > limit {
		facts = facts[:limit]
	}
	return facts, nil
}

// ExportBatch returns the nodes and edges of one graph batch.
func (s *Storage) ExportBatch(ctx context.Context, graphID string) (*store.GraphExport, error) {
	export := &store.GraphExport{GraphID: graphID}

	rows, err := s.conn.Query(ctx,
		`SELECT entity_id, owner_id, text, type, chunk_index
		 FROM graph_entities WHERE graph_id = $1 ORDER BY entity_id`,
		graphID,
	)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		e := common.Entity{GraphID: graphID}
		var typ string
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Text, &typ, &e.ChunkIndex); err != nil {
			rows.Close()
			return nil, err
		}
		e.Type = common.EntityType(typ)
		export.Nodes = append(export.Nodes, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(export.Nodes) == 0 {
		return nil, fmt.Errorf("unknown graph id %q", graphID)
	}

	rows, err = s.conn.Query(ctx,
		`SELECT owner_id, source_id, target_id, type, context, value
		 FROM graph_relationships WHERE graph_id = $1 ORDER BY id`,
		graphID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		r := common.Relationship{GraphID: graphID}
		if err := rows.Scan(&r.OwnerID, &r.SourceID, &r.TargetID, &r.Type, &r.Context, &r.Value); err != nil {
			return nil, err
		}
		export.Edges = append(export.Edges, r)
	}
	return export, rows.Err()
}
