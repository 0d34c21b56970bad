package postgres

import (
	"fmt"
	"strings"

	"scantransfer/internal/schema"
)

// CreateTableSQL renders the CREATE TABLE statement for a scan report schema,
// mapping each column's declared kind onto its Postgres type. The statement
// uses IF NOT EXISTS so bootstrap is idempotent.
func CreateTableSQL(table string, sch schema.Schema, types schema.TypeSpec) (string, error) {
	if table == "" {
		return "", fmt.Errorf("ddl: table name is required")
	}
	if err := types.Covers(sch); err != nil {
		return "", err
	}

	notNull := make(map[string]bool, len(sch.NotNull))
	for _, c := range sch.NotNull {
		notNull[c] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", pgFQN(table))
	for i, col := range sch.Columns {
		ct, _ := types.Lookup(col)
		sqlType, err := pgType(ct)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "    %s %s", pgIdent(col), sqlType)
		if notNull[col] {
			b.WriteString(" NOT NULL")
		}
		if i < len(sch.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String(), nil
}

// pgType maps a column kind onto its Postgres type.
func pgType(ct schema.ColumnType) (string, error) {
	switch ct.Kind {
	case schema.KindString:
		if ct.MaxLength > 0 {
			return fmt.Sprintf("varchar(%d)", ct.MaxLength), nil
		}
		return "text", nil
	case schema.KindInt:
		return "bigint", nil
	case schema.KindDate:
		return "date", nil
	case schema.KindTimestampTZ:
		return "timestamptz", nil
	default:
		return "", fmt.Errorf("ddl: no Postgres type for kind %q (column %s)", ct.Kind, ct.Name)
	}
}
