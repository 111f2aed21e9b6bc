package subgraph

import (
	"context"
	"encoding/json"

	"github.com/SimpleFi-finance/defi-analytics/internal/apperror"
)

// Paginate walks a collection with first/id_gt paging. The query must
// declare $first: Int! and $lastID: String! and select field, whose items
// must carry an id. visit is called once per non-empty page.
func Paginate[T any](
	ctx context.Context,
	c *Client,
	query string,
	field string,
	vars map[string]any,
	idOf func(T) string,
	visit func(page []T) error,
) error {
	lastID := ""
	for {
		pageVars := make(map[string]any, len(vars)+2)
		for k, v := range vars {
			pageVars[k] = v
		}
		pageVars["first"] = c.pageSize
		pageVars["lastID"] = lastID

		var data map[string]json.RawMessage
		if err := c.Query(ctx, query, pageVars, &data); err != nil {
			return err
		}

		raw, ok := data[field]
		if !ok {
			return apperror.New(apperror.CodeSubgraphResponseError,
				apperror.WithContextf("%s: missing field %q", c.name, field))
		}

		var page []T
		if err := json.Unmarshal(raw, &page); err != nil {
			return apperror.New(apperror.CodeSubgraphResponseError,
				apperror.WithCause(err),
				apperror.WithContextf("%s: decode %s", c.name, field))
		}
		if len(page) == 0 {
			return nil
		}

		if err := visit(page); err != nil {
			return err
		}

		next := idOf(page[len(page)-1])
		if next == lastID {
			return nil
		}
		lastID = next
	}
}
