package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DatabaseClient handles Supabase Database (PostgREST) operations.
type DatabaseClient struct {
	client *Client
}

// From starts a query builder for a table.
func (d *DatabaseClient) From(table string) *QueryBuilder {
	return &QueryBuilder{
		client:  d.client,
		table:   table,
		method:  http.MethodGet,
		columns: "*",
		filters: make([]string, 0),
		headers: make(map[string]string),
	}
}

// RPC calls a Postgres function and returns the raw JSON result.
func (d *DatabaseClient) RPC(ctx context.Context, fn string, params interface{}) ([]byte, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	respBody, statusCode, err := d.client.request(ctx, http.MethodPost, d.client.restURL+"/rpc/"+url.PathEscape(fn), body, nil)
	if err != nil {
		return nil, err
	}

	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	return respBody, nil
}

// =============================================================================
// Query Builder
// =============================================================================

// QueryBuilder builds and executes database queries.
type QueryBuilder struct {
	client   *Client
	table    string
	method   string
	columns  string
	filters  []string
	orders   []string
	limitVal *int
	body     []byte
	buildErr error
	headers  map[string]string
	single   bool
}

// Select specifies columns to select. PostgREST embeds (e.g. "*, dogs(name)") are passed through.
func (q *QueryBuilder) Select(columns string) *QueryBuilder {
	q.method = http.MethodGet
	q.columns = columns
	return q
}

// Insert inserts records.
func (q *QueryBuilder) Insert(data interface{}) *QueryBuilder {
	q.method = http.MethodPost
	q.setBody(data)
	q.headers["Prefer"] = "return=representation"
	return q
}

// Update updates records.
func (q *QueryBuilder) Update(data interface{}) *QueryBuilder {
	q.method = http.MethodPatch
	q.setBody(data)
	q.headers["Prefer"] = "return=representation"
	return q
}

// Delete deletes records.
func (q *QueryBuilder) Delete() *QueryBuilder {
	q.method = http.MethodDelete
	q.headers["Prefer"] = "return=representation"
	return q
}

func (q *QueryBuilder) setBody(data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		q.buildErr = fmt.Errorf("marshal body: %w", err)
		return
	}
	q.body = body
}

// =============================================================================
// Filters
// =============================================================================

// Eq adds an equality filter.
func (q *QueryBuilder) Eq(column string, value interface{}) *QueryBuilder {
	return q.Filter(column, OpEq, value)
}

// In adds an IN filter.
func (q *QueryBuilder) In(column string, values []string) *QueryBuilder {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteListValue(v)
	}
	q.filters = append(q.filters, fmt.Sprintf("%s=in.(%s)", column, escapeValue(strings.Join(quoted, ","))))
	return q
}

// Filter adds a filter with an explicit operator.
func (q *QueryBuilder) Filter(column string, op FilterOperator, value interface{}) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=%s.%s", column, op, escapeValue(fmt.Sprint(value))))
	return q
}

// OrILike matches rows where any of columns is ILIKE pattern, with '*' as the wildcard. The
// pattern is quoted, so commas, parentheses and quotes in it are literal.
func (q *QueryBuilder) OrILike(pattern string, columns ...string) *QueryBuilder {
	quoted := `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(pattern) + `"`
	conds := make([]string, len(columns))
	for i, c := range columns {
		conds[i] = fmt.Sprintf("%s.%s.%s", c, OpILike, quoted)
	}
	q.filters = append(q.filters, "or="+escapeValue("("+strings.Join(conds, ",")+")"))
	return q
}

// escapeValue percent-encodes a query value; spaces become %20 rather than '+'.
func escapeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// quoteListValue quotes values containing PostgREST list delimiters.
func quoteListValue(v string) string {
	if strings.ContainsAny(v, `,()" `) {
		return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return v
}

// =============================================================================
// Ordering and Pagination
// =============================================================================

// Order adds an order clause.
func (q *QueryBuilder) Order(column string, opts ...OrderDirection) *QueryBuilder {
	dir := OrderAsc
	if len(opts) > 0 {
		dir = opts[0]
	}
	q.orders = append(q.orders, fmt.Sprintf("%s.%s", column, dir))
	return q
}

// Limit sets the maximum number of rows.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limitVal = &n
	return q
}

// Single expects exactly one row; PostgREST answers PGRST116 otherwise.
func (q *QueryBuilder) Single() *QueryBuilder {
	q.single = true
	q.headers["Accept"] = "application/vnd.pgrst.object+json"
	return q
}

// =============================================================================
// Execution
// =============================================================================

// Execute executes the query and returns raw bytes.
func (q *QueryBuilder) Execute(ctx context.Context) ([]byte, error) {
	if q.buildErr != nil {
		return nil, q.buildErr
	}

	respBody, statusCode, err := q.client.request(ctx, q.method, q.buildURL(), q.body, q.headers)
	if err != nil {
		return nil, err
	}

	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	return respBody, nil
}

// ExecuteInto executes the query and unmarshals into dest.
func (q *QueryBuilder) ExecuteInto(ctx context.Context, dest interface{}) error {
	data, err := q.Execute(ctx)
	if err != nil {
		return err
	}

	if len(data) == 0 || dest == nil {
		return nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

// buildURL builds the request URL.
func (q *QueryBuilder) buildURL() string {
	urlStr := q.client.restURL + "/" + url.PathEscape(q.table)

	params := make([]string, 0)

	// select also shapes the representation returned by writes
	if q.columns != "" && (q.method == http.MethodGet || q.headers["Prefer"] != "") {
		params = append(params, "select="+escapeValue(q.columns))
	}

	params = append(params, q.filters...)

	if len(q.orders) > 0 {
		params = append(params, "order="+strings.Join(q.orders, ","))
	}

	if q.limitVal != nil {
		params = append(params, fmt.Sprintf("limit=%d", *q.limitVal))
	}

	if len(params) > 0 {
		urlStr += "?" + strings.Join(params, "&")
	}

	return urlStr
}
