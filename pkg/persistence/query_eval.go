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

import (
	"fmt"
	"sort"
)

// MatchesFilters evaluates all filter conditions against a document with
// implicit AND semantics. Comparison operators on mixed or non-comparable
// types evaluate to false rather than erroring, matching the lenient
// behavior of JSON-document backends. Shared by the memory and sqlite
// backends so that query semantics cannot drift between them.
func MatchesFilters(doc Document, filters []FilterCondition) bool {
	for _, f := range filters {
		if !matchesCondition(doc[f.Field], f) {
			return false
		}
	}

	return true
}

func matchesCondition(fieldValue interface{}, f FilterCondition) bool {
	switch f.Op {
	case Eq:
		return CompareValues(fieldValue, f.Value) == 0
	case Ne:
		return CompareValues(fieldValue, f.Value) != 0
	case Gt:
		return isComparable(fieldValue, f.Value) && CompareValues(fieldValue, f.Value) > 0
	case Gte:
		return isComparable(fieldValue, f.Value) && CompareValues(fieldValue, f.Value) >= 0
	case Lt:
		return isComparable(fieldValue, f.Value) && CompareValues(fieldValue, f.Value) < 0
	case Lte:
		return isComparable(fieldValue, f.Value) && CompareValues(fieldValue, f.Value) <= 0
	case In:
		return containsValue(f.Value, fieldValue)
	case Nin:
		return !containsValue(f.Value, fieldValue)
	default:
		return false
	}
}

func containsValue(candidates interface{}, value interface{}) bool {
	switch list := candidates.(type) {
	case []string:
		for _, c := range list {
			if CompareValues(value, c) == 0 {
				return true
			}
		}
	case []interface{}:
		for _, c := range list {
			if CompareValues(value, c) == 0 {
				return true
			}
		}
	}

	return false
}

func isComparable(a, b interface{}) bool {
	_, aNum := toFloat(a)
	_, bNum := toFloat(b)
	if aNum && bNum {
		return true
	}

	_, aStr := a.(string)
	_, bStr := b.(string)

	return aStr && bStr
}

// CompareValues returns -1, 0 or 1. Numbers compare numerically across int
// and float representations (JSON round-trips turn ints into float64),
// everything else compares by string form.
func CompareValues(a, b interface{}) int {
	aNum, aOk := toFloat(a)
	bNum, bOk := toFloat(b)

	if aOk && bOk {
		switch {
		case aNum < bNum:
			return -1
		case aNum > bNum:
			return 1
		default:
			return 0
		}
	}

	aStr := fmt.Sprintf("%v", a)
	bStr := fmt.Sprintf("%v", b)

	switch {
	case aStr < bStr:
		return -1
	case aStr > bStr:
		return 1
	default:
		return 0
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// SortDocuments sorts in place by the given fields, first field primary.
func SortDocuments(docs []Document, sortBy []SortField) {
	if len(sortBy) == 0 {
		return
	}

	sort.SliceStable(docs, func(i, j int) bool {
		for _, s := range sortBy {
			cmp := CompareValues(docs[i][s.Field], docs[j][s.Field])
			if cmp == 0 {
				continue
			}

			if s.Order == Desc {
				return cmp > 0
			}

			return cmp < 0
		}

		return false
	})
}

// Paginate applies skip, limit and the max-find-limit cap to a sorted slice.
func Paginate(docs []Document, query Query) []Document {
	if query.SkipCount > 0 {
		if query.SkipCount >= len(docs) {
			return []Document{}
		}

		docs = docs[query.SkipCount:]
	}

	limit := query.LimitCount
	if limit == 0 && query.MaxFindLimit > 0 {
		limit = query.MaxFindLimit
	}

	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}

	return docs
}
