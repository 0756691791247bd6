package repositories

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
	DefaultSort  = "-createdAt"

	// maxSkip bounds page*limit so huge pages cannot overflow
	maxSkip = int64(1_000_000_000)
)

// reference fields stored as ObjectIDs
var objectIDFields = map[string]bool{"_id": true, "tour": true, "user": true, "guides": true}

// fields stored as dates
var dateFields = map[string]bool{"startDates": true, "createdAt": true, "passwordChangedAt": true}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

// reserved query parameters that never become filters
var excludedParams = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}

// parameters allowed to repeat; repeats become an $in filter
var pollutionWhitelist = map[string]bool{
	"duration":        true,
	"ratingsAverage":  true,
	"ratingsQuantity": true,
	"maxGroupSize":    true,
	"difficulty":      true,
	"price":           true,
}

var comparisonOperators = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
	"ne":  "$ne",
	"in":  "$in",
}

var operatorParam = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\[([a-z]+)\]$`)

// Query is the outcome of the query features applied to a request's parameters
type Query struct {
	Filter     bson.M
	Sort       bson.D
	Projection bson.D
	Skip       int64
	Limit      int64
}

// FindOptions converts the query into driver options
func (q *Query) FindOptions() *options.FindOptions {
	opts := options.Find()
	if len(q.Sort) > 0 {
		opts.SetSort(q.Sort)
	}
	if len(q.Projection) > 0 {
		opts.SetProjection(q.Projection)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}

// Fields returns the selected fields and whether they are inclusions
func (q *Query) Fields() ([]string, bool) {
	if len(q.Projection) == 0 {
		return nil, false
	}
	fields := make([]string, 0, len(q.Projection))
	include := false
	for _, e := range q.Projection {
		fields = append(fields, e.Key)
		if v, ok := e.Value.(int); ok && v == 1 {
			include = true
		}
	}
	return fields, include
}

// APIFeatures builds a Query from URL parameters in a fixed order:
// filter, sort, field limiting and pagination.
type APIFeatures struct {
	params url.Values
	query  *Query
}

func NewAPIFeatures(params url.Values) *APIFeatures {
	if params == nil {
		params = url.Values{}
	}
	return &APIFeatures{params: params, query: &Query{Filter: bson.M{}}}
}

// WithFilter seeds the filter, e.g. with the tour of a nested route
func (f *APIFeatures) WithFilter(base bson.M) *APIFeatures {
	for k, v := range base {
		f.query.Filter[k] = v
	}
	return f
}

// Filter turns the remaining parameters into a Mongo filter. Keys that could
// inject operators are dropped and seeded keys are never overridden.
func (f *APIFeatures) Filter() *APIFeatures {
	operators := map[string]bson.M{}
	equals := map[string]interface{}{}

	for key, values := range f.params {
		if excludedParams[key] || len(values) == 0 {
			continue
		}

		if m := operatorParam.FindStringSubmatch(key); m != nil {
			field, op := m[1], m[2]
			mongoOp, ok := comparisonOperators[op]
			if !ok {
				continue
			}
			last := values[len(values)-1]
			if op == "in" {
				operators[field] = withOp(operators[field], mongoOp, coerceList(field, strings.Split(last, ",")))
			} else {
				operators[field] = withOp(operators[field], mongoOp, coerce(field, last))
			}
			continue
		}

		if !safeFieldName(key) {
			continue
		}
		if len(values) > 1 && pollutionWhitelist[key] {
			equals[key] = bson.M{"$in": coerceList(key, values)}
			continue
		}
		equals[key] = coerce(key, values[len(values)-1])
	}

	for field, ops := range operators {
		if v, ok := equals[field]; ok {
			if in, isIn := v.(bson.M); isIn {
				ops["$in"] = in["$in"]
			} else {
				ops["$eq"] = v
			}
			delete(equals, field)
		}
		f.set(field, ops)
	}
	for field, v := range equals {
		f.set(field, v)
	}
	return f
}

// Sort accepts a comma list where a leading "-" sorts descending
func (f *APIFeatures) Sort() *APIFeatures {
	sortBy := f.params.Get("sort")
	if strings.TrimSpace(sortBy) == "" {
		sortBy = DefaultSort
	}

	sort := bson.D{}
	for _, field := range splitList(sortBy) {
		dir := 1
		if strings.HasPrefix(field, "-") {
			dir = -1
			field = field[1:]
		}
		if !safeFieldName(field) {
			continue
		}
		sort = append(sort, bson.E{Key: field, Value: dir})
	}
	f.query.Sort = sort
	return f
}

// LimitFields projects the comma list in "fields". Inclusions win when both
// kinds are mixed since Mongo rejects mixed projections.
func (f *APIFeatures) LimitFields() *APIFeatures {
	fields := f.params.Get("fields")
	if strings.TrimSpace(fields) == "" {
		return f
	}

	var include, exclude bson.D
	for _, field := range splitList(fields) {
		if strings.HasPrefix(field, "-") {
			if name := field[1:]; safeFieldName(name) {
				exclude = append(exclude, bson.E{Key: name, Value: 0})
			}
			continue
		}
		if safeFieldName(field) {
			include = append(include, bson.E{Key: field, Value: 1})
		}
	}

	if len(include) > 0 {
		f.query.Projection = include
	} else {
		f.query.Projection = exclude
	}
	return f
}

// Paginate applies page (default 1) and limit (default 100)
func (f *APIFeatures) Paginate() *APIFeatures {
	page := positiveInt(f.params.Get("page"), DefaultPage)
	limit := positiveInt(f.params.Get("limit"), DefaultLimit)

	skip := maxSkip
	if int64(page-1) <= maxSkip/int64(limit) {
		skip = int64(page-1) * int64(limit)
	}
	f.query.Skip = skip
	f.query.Limit = int64(limit)
	return f
}

func (f *APIFeatures) Query() *Query {
	return f.query
}

func (f *APIFeatures) set(field string, value interface{}) {
	if _, seeded := f.query.Filter[field]; seeded {
		return
	}
	f.query.Filter[field] = value
}

func withOp(ops bson.M, op string, value interface{}) bson.M {
	if ops == nil {
		ops = bson.M{}
	}
	ops[op] = value
	return ops
}

func safeFieldName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "$.[]")
}

func splitList(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func positiveInt(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// coerce converts a raw parameter into the type the field is stored as, or
// the most specific scalar it represents
func coerce(field, raw string) interface{} {
	if objectIDFields[field] {
		if id, err := primitive.ObjectIDFromHex(raw); err == nil {
			return id
		}
	}
	if dateFields[field] {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC()
			}
		}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}

func coerceList(field string, raw []string) bson.A {
	out := make(bson.A, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, coerce(field, r))
		}
	}
	return out
}
