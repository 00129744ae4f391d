package sqldb

import (
	"context"
	"fmt"
	"strings"

	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

const (
	conceptColumns = `c.id, c.code, c.name, c.description, c.default_amount`

	qConcept       = `SELECT ` + conceptColumns + ` FROM charge_concepts c WHERE c.id = ?`
	qConcepts      = `SELECT ` + conceptColumns + ` FROM charge_concepts c ORDER BY c.name, c.id`
	qConceptsMatch = `SELECT ` + conceptColumns + ` FROM charge_concepts c
		WHERE LOWER(c.code) LIKE ? OR LOWER(c.name) LIKE ?
		ORDER BY c.name, c.id`

	qInsertConcept = `INSERT INTO charge_concepts (code, name, description, default_amount) VALUES (?, ?, ?, ?)`
)

func scanConcept(s scanner) (frontdesk.ChargeConcept, error) {
	var cc frontdesk.ChargeConcept
	err := s.Scan(&cc.ID, &cc.Code, &cc.Name, &cc.Description, &cc.DefaultAmount)
	return cc, err
}

func (c *conn) Concept(ctx context.Context, id generic.ConceptID) (frontdesk.ChargeConcept, error) {
	cc, err := scanConcept(c.q.QueryRowContext(ctx, qConcept, id))
	if err != nil {
		return frontdesk.ChargeConcept{}, notFound(err, "concept", id)
	}
	return cc, nil
}

// Concepts lists the catalog, optionally filtered by a case-insensitive
// substring of code or name.
func (c *conn) Concepts(ctx context.Context, search string) ([]frontdesk.ChargeConcept, error) {
	search = strings.ToLower(strings.TrimSpace(search))

	var (
		query = qConcepts
		args  []any
	)
	if search != "" {
		pattern := "%" + likeEscaper.Replace(search) + "%"
		query, args = qConceptsMatch, []any{pattern, pattern}
	}

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []frontdesk.ChargeConcept
	for rows.Next() {
		cc, err := scanConcept(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

// likeEscaper drops LIKE wildcards from user search text.
var likeEscaper = strings.NewReplacer("%", "", "_", "")

func (s *Store) SaveConcept(ctx context.Context, cc frontdesk.ChargeConcept) (frontdesk.ChargeConcept, error) {
	res, err := s.db.ExecContext(ctx, qInsertConcept, cc.Code, cc.Name, cc.Description, cc.DefaultAmount)
	if err != nil {
		return frontdesk.ChargeConcept{}, fmt.Errorf("insert concept: %w", err)
	}
	id, err := insertID(res)
	cc.ID = generic.ConceptID(id)
	return cc, err
}
