package qdrant

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	filterOpAnd = "$and"
	filterOpOr  = "$or"
	filterOpNot = "$not"
	filterOpEq  = "$eq"
	filterOpNe  = "$ne"
	filterOpIn  = "$in"
	filterOpNin = "$nin"
)

const opFilter = "filter_translate"

// condition groups in qdrant's filter model.
type clauses struct {
	Must    []any
	Should  []any
	MustNot []any
}

func (c clauses) asMap() map[string]any {
	out := map[string]any{}
	if len(c.Must) > 0 {
		out["must"] = c.Must
	}
	if len(c.Should) > 0 {
		out["should"] = c.Should
	}
	if len(c.MustNot) > 0 {
		out["must_not"] = c.MustNot
	}
	return out
}

func (c *clauses) merge(o clauses) {
	c.Must = append(c.Must, o.Must...)
	c.Should = append(c.Should, o.Should...)
	c.MustNot = append(c.MustNot, o.MustNot...)
}

// translateFilter converts the vectorstore filter dialect into a qdrant filter.
// Keys are visited in sorted order so the output is deterministic.
func translateFilter(filter map[string]any) (clauses, error) {
	var out clauses
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, raw := range keys {
		key := strings.TrimSpace(raw)
		if key == "" {
			continue
		}
		value := filter[raw]
		if !strings.HasPrefix(key, "$") {
			part, err := translateField(key, value)
			if err != nil {
				return clauses{}, err
			}
			out.merge(part)
			continue
		}

		switch strings.ToLower(key) {
		case filterOpAnd, filterOpOr:
			items, ok := value.([]any)
			if !ok {
				return clauses{}, opErr(opFilter, OperationErrorValidation, fmt.Sprintf("operator %s expects an array", key), nil)
			}
			for _, item := range items {
				obj, ok := item.(map[string]any)
				if !ok {
					return clauses{}, opErr(opFilter, OperationErrorValidation, fmt.Sprintf("operator %s expects objects, got %T", key, item), nil)
				}
				sub, err := translateFilter(obj)
				if err != nil {
					return clauses{}, err
				}
				if strings.ToLower(key) == filterOpAnd {
					out.Must = append(out.Must, sub.asMap())
				} else {
					out.Should = append(out.Should, sub.asMap())
				}
			}
		case filterOpNot:
			obj, ok := value.(map[string]any)
			if !ok {
				return clauses{}, opErr(opFilter, OperationErrorValidation, "operator $not expects an object", nil)
			}
			sub, err := translateFilter(obj)
			if err != nil {
				return clauses{}, err
			}
			out.MustNot = append(out.MustNot, sub.asMap())
		default:
			return clauses{}, opErr(opFilter, OperationErrorUnsupportedFilter, fmt.Sprintf("unsupported top-level operator %q", key), nil)
		}
	}
	return out, nil
}

func translateField(field string, value any) (clauses, error) {
	var out clauses
	ops, isOps := value.(map[string]any)
	if !isOps {
		scalar, ok := toScalar(value)
		if !ok {
			return clauses{}, opErr(opFilter, OperationErrorValidation, fmt.Sprintf("field %q expects a scalar or operator object", field), nil)
		}
		out.Must = append(out.Must, matchValue(field, scalar))
		return out, nil
	}
	if len(ops) == 0 {
		return clauses{}, opErr(opFilter, OperationErrorValidation, fmt.Sprintf("field %q has an empty operator object", field), nil)
	}

	names := make([]string, 0, len(ops))
	for op := range ops {
		names = append(names, op)
	}
	sort.Strings(names)

	for _, op := range names {
		switch strings.ToLower(strings.TrimSpace(op)) {
		case filterOpEq, filterOpNe:
			scalar, ok := toScalar(ops[op])
			if !ok {
				return clauses{}, opErr(opFilter, OperationErrorValidation, fmt.Sprintf("%s on %q expects a scalar", op, field), nil)
			}
			if strings.EqualFold(op, filterOpEq) {
				out.Must = append(out.Must, matchValue(field, scalar))
			} else {
				out.MustNot = append(out.MustNot, matchValue(field, scalar))
			}
		case filterOpIn, filterOpNin:
			values, err := toScalarSlice(ops[op])
			if err != nil {
				return clauses{}, opErr(opFilter, OperationErrorValidation, fmt.Sprintf("%s on %q expects a scalar array", op, field), err)
			}
			if len(values) == 0 {
				if strings.EqualFold(op, filterOpIn) {
					return clauses{}, opErr(opFilter, OperationErrorValidation, fmt.Sprintf("$in on %q cannot be empty", field), nil)
				}
				// excluding nothing
				continue
			}
			cond := map[string]any{"key": field, "match": map[string]any{"any": values}}
			if strings.EqualFold(op, filterOpIn) {
				out.Must = append(out.Must, cond)
			} else {
				out.MustNot = append(out.MustNot, cond)
			}
		default:
			return clauses{}, opErr(opFilter, OperationErrorUnsupportedFilter, fmt.Sprintf("unsupported operator %q on field %q", op, field), nil)
		}
	}
	return out, nil
}

func matchValue(key string, value any) map[string]any {
	return map[string]any{"key": key, "match": map[string]any{"value": value}}
}

func toScalarSlice(value any) ([]any, error) {
	switch typed := value.(type) {
	case []string:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			out = append(out, v)
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			s, ok := toScalar(v)
			if !ok {
				return nil, fmt.Errorf("expected scalar, got %T", v)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected array, got %T", value)
	}
}

func toScalar(value any) (any, bool) {
	switch typed := value.(type) {
	case string, bool, int64, float64:
		return typed, true
	case int:
		return int64(typed), true
	case int32:
		return int64(typed), true
	case float32:
		return float64(typed), true
	case json.Number:
		if i, err := typed.Int64(); err == nil {
			return i, true
		}
		if f, err := typed.Float64(); err == nil {
			return f, true
		}
	}
	return nil, false
}
