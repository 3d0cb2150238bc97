package datatype

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// StringArray is stored as text[] on PostgreSQL and as a JSON array elsewhere.
type StringArray []string

func (StringArray) GormDataType() string {
	return "string_array"
}

func (StringArray) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "text[]"
	default:
		return "JSON"
	}
}

func (j StringArray) Value() (driver.Value, error) {
	data, err := json.Marshal(j)
	return string(data), err
}

func (j StringArray) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	if db.Dialector.Name() == "postgres" {
		return gorm.Expr("?", pq.StringArray(j))
	}
	data, err := json.Marshal(j)
	if err != nil {
		db.Error = err
	}
	return gorm.Expr("?", string(data))
}

func (j *StringArray) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal string array value: %v", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*j = nil
		return nil
	}
	switch data[0] {
	case '[':
		return json.Unmarshal(data, j)
	case '{':
		var a pq.StringArray
		if err := a.Scan(data); err != nil {
			return err
		}
		*j = StringArray(a)
		return nil
	}
	return fmt.Errorf("failed to unmarshal string array value: %s", data)
}
