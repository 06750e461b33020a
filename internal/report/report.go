// Package report renders the client/permission spreadsheet. It sits
// downstream of the synchronization core: its only contract is that the
// joined rows it receives are correct.
package report

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/xuri/excelize/v2"

	"crmsync/internal/store"
)

// boolColumns in the join result; SQLite hands them back as integers.
var boolColumns = []string{"can_call", "can_email"}

// JoinedRows returns one row per client with its permission flags.
func JoinedRows(ctx context.Context, st *store.Store) ([]map[string]any, error) {
	rows, err := store.QueryRows(ctx, st.DB, `
		SELECT c.id, c.name, c.company, c.email, c.phone,
		       p.can_call, p.can_email
		FROM clients c
		JOIN contact_permissions p ON p.client_id = c.id
		ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("join clients and permissions: %w", err)
	}
	if st.Dialect.NeedsBoolFix() {
		store.NormalizeBooleans(rows, boolColumns)
	}
	return rows, nil
}

// FilterRows keeps only rows for which the boolean expression evaluates
// to true. Each row's fields are the expression environment. An empty
// expression keeps everything.
func FilterRows(rows []map[string]any, expression string) ([]map[string]any, error) {
	if expression == "" {
		return rows, nil
	}

	prog, err := expr.Compile(expression, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}

	var kept []map[string]any
	for _, row := range rows {
		result, err := expr.Run(prog, row)
		if err != nil {
			return nil, fmt.Errorf("evaluate filter: %w", err)
		}
		if keep, ok := result.(bool); ok && keep {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

const sheetName = "Client Permissions"

var reportColumns = []struct {
	Header string
	Field  string
	Width  float64
}{
	{"ID", "id", 12},
	{"Name", "name", 24},
	{"Company", "company", 28},
	{"Email", "email", 30},
	{"Phone", "phone", 18},
	{"Can Call", "can_call", 10},
	{"Can Email", "can_email", 10},
}

// WriteXLSX writes the joined rows to a single-sheet spreadsheet with
// fixed column widths at path.
func WriteXLSX(path string, rows []map[string]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	for i, col := range reportColumns {
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheetName, colName, colName, col.Width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, col.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for r, row := range rows {
		for c, col := range reportColumns {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, row[col.Field]); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}
