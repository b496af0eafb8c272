package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Query builds a single PostgREST request against one table.
type Query struct {
	client *Client
	table  string
	method string
	params url.Values
	body   any
	prefer []string
	single bool
}

// From starts a query on table. Without a write verb it is a select.
func (s *Client) From(table string) *Query {
	return &Query{
		client: s,
		table:  table,
		method: http.MethodGet,
		params: url.Values{},
	}
}

func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

func (q *Query) filter(column, op string, value any) *Query {
	q.params.Add(column, op+"."+fmt.Sprint(value))
	return q
}

func (q *Query) Eq(column string, value any) *Query  { return q.filter(column, "eq", value) }
func (q *Query) Gte(column string, value any) *Query { return q.filter(column, "gte", value) }

func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	clause := column + "." + dir
	if existing := q.params.Get("order"); existing != "" {
		clause = existing + "," + clause
	}
	q.params.Set("order", clause)
	return q
}

func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", fmt.Sprint(n))
	return q
}

// Insert posts row and asks for the stored representation back.
func (q *Query) Insert(row any) *Query {
	q.method = http.MethodPost
	q.body = row
	q.prefer = append(q.prefer, "return=representation")
	return q
}

// Update patches the rows matched by the query's filters.
func (q *Query) Update(patch any) *Query {
	q.method = http.MethodPatch
	q.body = patch
	q.prefer = append(q.prefer, "return=representation")
	return q
}

// Delete removes the matched rows and returns them.
func (q *Query) Delete() *Query {
	q.method = http.MethodDelete
	q.prefer = append(q.prefer, "return=representation")
	return q
}

// Single asks PostgREST for exactly one object instead of an array; zero
// rows come back as a PGRST116 error.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

// Execute runs the query and returns the raw JSON body.
func (q *Query) Execute(ctx context.Context) Result[[]byte] {
	var reader *bytes.Reader
	if q.body != nil {
		payload, err := json.Marshal(q.body)
		if err != nil {
			return Err[[]byte](fmt.Errorf("encode %s payload: %w", q.table, err))
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := q.client.endpoint("/rest/v1/"+q.table, q.params)
	var (
		req *http.Request
		err error
	)
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, q.method, endpoint, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, q.method, endpoint, nil)
	}
	if err != nil {
		return Err[[]byte](err)
	}

	key := q.client.apiKey()
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+key)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	if len(q.prefer) > 0 {
		req.Header.Set("Prefer", strings.Join(q.prefer, ","))
	}

	body, err := q.client.do(req)
	if err != nil {
		return Err[[]byte](err)
	}
	return Ok(body)
}
