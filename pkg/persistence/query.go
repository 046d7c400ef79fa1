// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package persistence

const (
	DefaultMaxFindLimit = 1000
)

// Operator represents MongoDB-style query operators for filtering documents.
//
// DESIGN DECISION: Use MongoDB-style operators ($eq, $gt, $in)
// WHY: Familiar syntax, and backends can add custom operators without
// changing this package. String-based operators trade compile-time safety
// for that flexibility.
type Operator string

const (
	Eq  Operator = "$eq"  // Equal: field == value
	Ne  Operator = "$ne"  // Not equal: field != value
	Gt  Operator = "$gt"  // Greater than: field > value
	Gte Operator = "$gte" // Greater than or equal: field >= value
	Lt  Operator = "$lt"  // Less than: field < value
	Lte Operator = "$lte" // Less than or equal: field <= value
	In  Operator = "$in"  // In array: field IN (value1, value2, ...)
	Nin Operator = "$nin" // Not in array: field NOT IN (value1, value2, ...)
)

// FilterCondition represents a single filter criterion. The explicit
// field/op/value structure makes it easy for backends to translate into
// their native query language.
type FilterCondition struct {
	Field string
	Op    Operator
	Value interface{}
}

// SortOrder represents sort direction, MongoDB convention (1 asc, -1 desc).
type SortOrder int

const (
	Asc  SortOrder = 1
	Desc SortOrder = -1
)

// SortField represents a field to sort by and its direction.
type SortField struct {
	Field string
	Order SortOrder
}

// Query represents filtering, sorting, and pagination criteria. Multiple
// Filter calls combine with AND; multiple Sort calls define precedence.
type Query struct {
	Filters      []FilterCondition
	SortBy       []SortField
	LimitCount   int
	SkipCount    int
	MaxFindLimit int
}

// NewQuery creates an empty query builder.
func NewQuery() *Query {
	return &Query{}
}

// Filter adds a filter condition to the query. Chained filters are ANDed.
func (q *Query) Filter(field string, op Operator, value interface{}) *Query {
	q.Filters = append(q.Filters, FilterCondition{
		Field: field,
		Op:    op,
		Value: value,
	})

	return q
}

// Sort adds a sort field; the first call is primary, later calls break ties.
func (q *Query) Sort(field string, order SortOrder) *Query {
	q.SortBy = append(q.SortBy, SortField{
		Field: field,
		Order: order,
	})

	return q
}

// Limit sets the maximum number of documents to return. Negative values are
// treated as 0 (no limit) rather than panicking on a likely logic error.
func (q *Query) Limit(count int) *Query {
	if count < 0 {
		count = 0
	}

	q.LimitCount = count

	return q
}

// Skip sets the number of documents to skip before returning results.
func (q *Query) Skip(count int) *Query {
	if count < 0 {
		count = 0
	}

	q.SkipCount = count

	return q
}

// WithMaxFindLimit caps the result size even when no explicit limit is set.
func (q *Query) WithMaxFindLimit(limit int) *Query {
	if limit < 0 {
		limit = 0
	}

	q.MaxFindLimit = limit

	return q
}
