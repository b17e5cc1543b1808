// Package filter provides AIP-160 filter expression parsing and SQL
// translation for beat and stall list queries.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "beat_type = ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// BeatDeclarations returns the field declarations for story beat filtering.
func BeatDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("type", filtering.TypeString),
		filtering.DeclareIdent("phase", filtering.TypeString),
		filtering.DeclareIdent("status", filtering.TypeString),
		filtering.DeclareIdent("arc_id", filtering.TypeString),
		filtering.DeclareIdent("week", filtering.TypeInt),
		filtering.DeclareIdent("tension_impact", filtering.TypeInt),
		filtering.DeclareIdent("ts", filtering.TypeTimestamp),
	)
}

// StallDeclarations returns the field declarations for stall filtering.
func StallDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("type", filtering.TypeString),
		filtering.DeclareIdent("status", filtering.TypeString),
		filtering.DeclareIdent("severity", filtering.TypeString),
		filtering.DeclareIdent("duration_hours", filtering.TypeInt),
		filtering.DeclareIdent("ts", filtering.TypeTimestamp),
	)
}

// beatFieldMapping maps beat filter fields to SQL column names.
var beatFieldMapping = map[string]string{
	"type":           "beat_type",
	"phase":          "phase",
	"status":         "status",
	"arc_id":         "arc_id",
	"week":           "week_number",
	"tension_impact": "tension_impact",
	"ts":             "occurred_at",
}

// stallFieldMapping maps stall filter fields to SQL column names.
var stallFieldMapping = map[string]string{
	"type":           "stall_type",
	"status":         "status",
	"severity":       "severity",
	"duration_hours": "duration_hours",
	"ts":             "detected_at",
}

// ParseBeatFilter parses an AIP-160 filter expression for beat lists.
// Returns an empty condition for an empty filter string.
func ParseBeatFilter(filterStr string) (SQLCondition, error) {
	return parse(filterStr, BeatDeclarations, beatFieldMapping)
}

// ParseStallFilter parses an AIP-160 filter expression for stall lists.
func ParseStallFilter(filterStr string) (SQLCondition, error) {
	return parse(filterStr, StallDeclarations, stallFieldMapping)
}

func parse(filterStr string, declare func() (*filtering.Declarations, error), mapping map[string]string) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}

	decls, err := declare()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}

	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("parse filter: %w", err)
	}

	return translateExpr(parsed.CheckedExpr.Expr, mapping)
}

func translateExpr(e *expr.Expr, mapping map[string]string) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return translateCall(kind.CallExpr, mapping)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func translateCall(call *expr.Expr_Call, mapping map[string]string) (SQLCondition, error) {
	switch call.Function {
	case "_&&_", "AND":
		return translateLogical(call.Args, "AND", mapping)
	case "_||_", "OR":
		return translateLogical(call.Args, "OR", mapping)
	case "_==_", "=":
		return translateComparison(call.Args, "=", mapping)
	case "_!=_", "!=":
		return translateComparison(call.Args, "!=", mapping)
	case "_<_", "<":
		return translateComparison(call.Args, "<", mapping)
	case "_<=_", "<=":
		return translateComparison(call.Args, "<=", mapping)
	case "_>_", ">":
		return translateComparison(call.Args, ">", mapping)
	case "_>=_", ">=":
		return translateComparison(call.Args, ">=", mapping)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func translateLogical(args []*expr.Expr, op string, mapping map[string]string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("%s requires 2 arguments", op)
	}

	left, err := translateExpr(args[0], mapping)
	if err != nil {
		return SQLCondition{}, err
	}

	right, err := translateExpr(args[1], mapping)
	if err != nil {
		return SQLCondition{}, err
	}

	return SQLCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func translateComparison(args []*expr.Expr, op string, mapping map[string]string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return SQLCondition{}, err
	}

	column, ok := mapping[field]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", field)
	}

	value, err := extractValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}

	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		// Handle timestamp("...") function calls
		if kind.CallExpr.Function == "timestamp" && len(kind.CallExpr.Args) == 1 {
			return extractTimestampValue(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}

	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return kind.Uint64Value, nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

// extractTimestampValue converts timestamp("...") arguments to the UTC
// millisecond representation the stores persist.
func extractTimestampValue(e *expr.Expr) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("nil timestamp argument")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		if strVal, ok := kind.ConstExpr.ConstantKind.(*expr.Constant_StringValue); ok {
			t, err := time.Parse(time.RFC3339, strVal.StringValue)
			if err != nil {
				t, err = time.Parse(time.RFC3339Nano, strVal.StringValue)
				if err != nil {
					return 0, fmt.Errorf("invalid timestamp format: %s", strVal.StringValue)
				}
			}
			return t.UTC().UnixMilli(), nil
		}
		return 0, fmt.Errorf("timestamp argument must be a string")
	default:
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
}
