package model

import (
	"context"
	"database/sql/driver"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/kart-io/medextract/pkg/utils/json"
)

// JSONColumn stores V as a JSON document column.
type JSONColumn[V any] struct {
	Data V
}

// NewJSONColumn wraps v.
func NewJSONColumn[V any](v V) JSONColumn[V] {
	return JSONColumn[V]{Data: v}
}

// Value implements driver.Valuer. A value that encodes to null is stored as NULL.
func (c JSONColumn[V]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.Data)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *JSONColumn[V]) Scan(src any) error {
	var zero V
	c.Data = zero

	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("json column: unsupported type %T", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, &c.Data)
}

// MarshalJSON encodes the wrapped value.
func (c JSONColumn[V]) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Data)
}

// UnmarshalJSON decodes into the wrapped value.
func (c *JSONColumn[V]) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &c.Data)
}

// GormDataType implements schema.GormDataTypeInterface.
func (JSONColumn[V]) GormDataType() string {
	return "json"
}

// GormDBDataType picks the column type per dialect.
func (JSONColumn[V]) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	case "mysql":
		return "JSON"
	default:
		return "TEXT"
	}
}

// GormValue binds the value through Value so NULL handling is consistent.
func (c JSONColumn[V]) GormValue(_ context.Context, _ *gorm.DB) clause.Expr {
	v, err := c.Value()
	if err != nil {
		return clause.Expr{SQL: "?", Vars: []any{nil}}
	}
	return clause.Expr{SQL: "?", Vars: []any{v}}
}
