package catalog

import (
	"sort"
	"strings"

	"github.com/yourbasic/graph"

	"github.com/orashift/orashift/pkg/models"
)

// ForeignKeys returns the schema's intra-schema foreign key relationships.
func (c *Catalog) ForeignKeys(schema string) ([]models.ForeignKey, error) {
	rows, err := c.Conn.DB.Query(`
		SELECT a.table_name, p.table_name referenced_table, a.constraint_name
		FROM all_constraints a
		JOIN all_constraints p
		  ON a.r_owner = p.owner
		 AND a.r_constraint_name = p.constraint_name
		WHERE a.constraint_type = 'R'
		  AND a.owner = :1
		  AND p.owner = :2
		ORDER BY a.table_name, a.constraint_name`,
		strings.ToUpper(schema), strings.ToUpper(schema))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []models.ForeignKey
	for rows.Next() {
		var fk models.ForeignKey
		if err := rows.Scan(&fk.Table, &fk.ReferencedTable, &fk.ConstraintName); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// InsertionOrder reorders tables so that referenced tables come before the
// tables pointing at them, keeping inserts valid under enabled foreign key
// constraints. When the dependency graph is cyclic the alphabetical order
// is kept and a warning is logged.
func (c *Catalog) InsertionOrder(schema string, tables []string) ([]string, error) {
	fks, err := c.ForeignKeys(schema)
	if err != nil {
		return nil, err
	}
	return OrderByDependency(tables, fks, func(format string, args ...interface{}) {
		c.Logger.Warningf(format, args...)
	}), nil
}

// OrderByDependency topologically sorts tables by their foreign keys,
// parents first. Pure so it can be tested without a database.
func OrderByDependency(tables []string, fks []models.ForeignKey, warnf func(string, ...interface{})) []string {
	if len(tables) < 2 || len(fks) == 0 {
		return tables
	}

	index := make(map[string]int, len(tables))
	for i, t := range tables {
		index[t] = i
	}

	g := graph.New(len(tables))
	for _, fk := range fks {
		// Self-references do not constrain ordering.
		if fk.Table == fk.ReferencedTable {
			continue
		}
		parent, ok := index[fk.ReferencedTable]
		if !ok {
			continue
		}
		child, ok := index[fk.Table]
		if !ok {
			continue
		}
		g.Add(parent, child)
	}

	order, ok := graph.TopSort(g)
	if !ok {
		if warnf != nil {
			warnf("Circular foreign key dependencies detected, keeping name order")
		}
		sorted := append([]string(nil), tables...)
		sort.Strings(sorted)
		return sorted
	}

	ordered := make([]string, 0, len(tables))
	for _, idx := range order {
		ordered = append(ordered, tables[idx])
	}
	return ordered
}
