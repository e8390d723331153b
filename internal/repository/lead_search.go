package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/leadbook/internal/model"
	"github.com/iliyamo/leadbook/internal/query"
)

// leadColumnOf maps a query field to its column.
var leadColumnOf = map[query.Field]string{
	query.FieldEmail:       "email",
	query.FieldCompany:     "company",
	query.FieldCity:        "city",
	query.FieldStatus:      "status",
	query.FieldSource:      "source",
	query.FieldScore:       "score",
	query.FieldLeadValue:   "lead_value",
	query.FieldCreatedAt:   "created_at",
	query.FieldIsQualified: "is_qualified",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// leadWhere turns the clauses of q into a WHERE condition.  The owner
// predicate always comes first.
func leadWhere(q query.LeadQuery, owner uint64) (string, []any, error) {
	where := []string{"owner_id = ?"}
	args := []any{owner}

	for _, c := range q.Clauses {
		col, ok := leadColumnOf[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("lead search: no column for field %q", c.Field)
		}
		switch c.Op {
		case query.OpEq:
			if kind, _ := query.KindOf(c.Field); kind == query.KindText || kind == query.KindEnum {
				// exact means exact: the column collation is case-insensitive
				where = append(where, "BINARY "+col+" = ?")
			} else {
				where = append(where, col+" = ?")
			}
			args = append(args, c.Values[0])
		case query.OpContains:
			where = append(where, "LOWER("+col+") LIKE ?")
			args = append(args, "%"+likeEscaper.Replace(strings.ToLower(c.Values[0].(string)))+"%")
		case query.OpIn:
			marks := strings.TrimSuffix(strings.Repeat("?,", len(c.Values)), ",")
			where = append(where, col+" IN ("+marks+")")
			args = append(args, c.Values...)
		case query.OpGt, query.OpAfter:
			where = append(where, col+" > ?")
			args = append(args, c.Values[0])
		case query.OpLt, query.OpBefore:
			where = append(where, col+" < ?")
			args = append(args, c.Values[0])
		case query.OpBetween:
			where = append(where, col+" BETWEEN ? AND ?")
			args = append(args, c.Values[0], c.Values[1])
		default:
			return "", nil, fmt.Errorf("lead search: unsupported operator %q", c.Op)
		}
	}
	return strings.Join(where, " AND "), args, nil
}

// Search returns one page of the owner's leads matching q, newest first,
// and the total number of matches.
func (r *LeadRepo) Search(ctx context.Context, q query.LeadQuery) ([]model.Lead, int64, error) {
	owner, ok := parseID(q.OwnerID)
	if !ok {
		return []model.Lead{}, 0, nil
	}
	cond, args, err := leadWhere(q, owner)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM leads WHERE "+cond, args...); err != nil {
		return nil, 0, err
	}

	dataSQL := "SELECT " + leadColumns + `
		FROM leads
		WHERE ` + cond + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.Limit, q.Offset())

	var rows []leadRow
	if err := r.db.SelectContext(ctx, &rows, dataSQL, argsData...); err != nil {
		return nil, 0, err
	}
	out := make([]model.Lead, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, total, nil
}
