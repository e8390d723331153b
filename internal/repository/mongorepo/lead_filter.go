package mongorepo

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/leadbook/internal/query"
)

// leadFilter translates q into a document filter.  The owner predicate is
// always present; query fields map one to one onto document keys.
func leadFilter(q query.LeadQuery, owner bson.ObjectID) (bson.D, error) {
	filter := bson.D{{Key: "userId", Value: owner}}
	for _, c := range q.Clauses {
		if _, ok := query.KindOf(c.Field); !ok {
			return nil, fmt.Errorf("lead filter: unknown field %q", c.Field)
		}
		var cond any
		switch c.Op {
		case query.OpEq:
			cond = c.Values[0]
		case query.OpContains:
			cond = bson.Regex{Pattern: regexp.QuoteMeta(c.Values[0].(string)), Options: "i"}
		case query.OpIn:
			cond = bson.D{{Key: "$in", Value: bson.A(c.Values)}}
		case query.OpGt, query.OpAfter:
			cond = bson.D{{Key: "$gt", Value: c.Values[0]}}
		case query.OpLt, query.OpBefore:
			cond = bson.D{{Key: "$lt", Value: c.Values[0]}}
		case query.OpBetween:
			cond = bson.D{{Key: "$gte", Value: c.Values[0]}, {Key: "$lte", Value: c.Values[1]}}
		default:
			return nil, fmt.Errorf("lead filter: unsupported operator %q", c.Op)
		}
		filter = append(filter, bson.E{Key: string(c.Field), Value: cond})
	}
	return filter, nil
}
