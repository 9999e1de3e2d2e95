package psa

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// modifiedField is the remote field compared against Filters.ModifiedSince.
const modifiedField = "lastUpdated"

// Filters narrows a collection fetch on the server side.
type Filters struct {
	// Conditions is a free-form remote condition expression.
	Conditions string

	// OrderBy is the remote ordering clause, e.g. "id asc".
	OrderBy string

	// ModifiedSince, when set, limits the fetch to records updated after it.
	ModifiedSince *time.Time

	// Params are extra query parameters sent verbatim.
	Params map[string]string
}

// conditionString combines Conditions with the modified-since bound.
func (f Filters) conditionString() string {
	var since string
	if f.ModifiedSince != nil {
		since = ModifiedAfter(*f.ModifiedSince)
	}
	return And(f.Conditions, since)
}

// values encodes the filters as query parameters.
func (f Filters) values() url.Values {
	q := url.Values{}
	for k, v := range f.Params {
		q.Set(k, v)
	}
	if c := f.conditionString(); c != "" {
		q.Set("conditions", c)
	}
	if f.OrderBy != "" {
		q.Set("orderBy", f.OrderBy)
	}
	return q
}

// And joins the non-empty conditions with "and", parenthesizing each term
// when more than one is present.
func And(conds ...string) string {
	var terms []string
	for _, c := range conds {
		if c = strings.TrimSpace(c); c != "" {
			terms = append(terms, c)
		}
	}
	if len(terms) == 1 {
		return terms[0]
	}
	for i, t := range terms {
		terms[i] = "(" + t + ")"
	}
	return strings.Join(terms, " and ")
}

// ModifiedAfter returns the condition selecting records updated after t.
func ModifiedAfter(t time.Time) string {
	return modifiedField + " > [" + t.UTC().Format(time.RFC3339) + "]"
}

// InInts returns "field in (1,2,3)". An empty id list yields "".
func InInts(field string, ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return field + " in (" + strings.Join(parts, ",") + ")"
}

// InStrings returns `field in ("a","b")` with each value quoted. An empty
// value list yields "".
func InStrings(field string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = Quote(v)
	}
	return field + " in (" + strings.Join(parts, ",") + ")"
}

// Equals returns `field = "value"`.
func Equals(field, value string) string {
	return field + " = " + Quote(value)
}

// Quote wraps s in double quotes, escaping embedded quotes and backslashes.
func Quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
