package replicator

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/orashift/orashift/internal/catalog"
	"github.com/orashift/orashift/internal/connector"
)

// RowReplicator copies table data from source to target in size-bounded
// batches, one commit per table.
type RowReplicator struct {
	Source    *connector.Connector
	Target    *connector.Connector
	SourceCat *catalog.Catalog
	TargetCat *catalog.Catalog
	BatchSize int
	Logger    *logrus.Logger
}

// NewRowReplicator creates a row replicator over two open connections.
func NewRowReplicator(source, target *connector.Connector, batchSize int, logger *logrus.Logger) *RowReplicator {
	return &RowReplicator{
		Source:    source,
		Target:    target,
		SourceCat: catalog.New(source, logger),
		TargetCat: catalog.New(target, logger),
		BatchSize: batchSize,
		Logger:    logger,
	}
}

// ReplicateRows copies every table of the schema that exists on the target.
// Tables absent from the target are reported separately from tables whose
// copy failed, since the former mean the DDL pass must be re-run. A failing
// table never stops the remaining tables.
func (r *RowReplicator) ReplicateRows(schema string) (int64, []string, []string, error) {
	r.Logger.Infof(">>> Step 2/2: copying table data for schema %s", schema)

	tables, err := r.SourceCat.ListTables(schema)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("listing tables for %s: %w", schema, err)
	}
	r.Logger.Infof("Found %d table(s) in schema %s", len(tables), schema)
	if len(tables) == 0 {
		return 0, nil, nil, nil
	}

	// Parents before children keeps inserts valid when the target has
	// enabled foreign key constraints.
	ordered, err := r.SourceCat.InsertionOrder(schema, tables)
	if err != nil {
		r.Logger.Warningf("Could not resolve table dependency order, keeping name order: %v", err)
		ordered = tables
	}

	var totalRows int64
	var missing, failed []string
	for i, table := range ordered {
		r.Logger.Infof("  [%d/%d] Processing table %s.%s", i+1, len(ordered), schema, table)

		exists, err := r.TargetCat.TableExists(schema, table)
		if err != nil {
			r.Logger.Errorf("    Error checking target table %s.%s: %v", schema, table, err)
			failed = append(failed, fmt.Sprintf("%s.%s", schema, table))
			continue
		}
		if !exists {
			r.Logger.Errorf("    Table %s.%s does NOT exist in target, DDL replication must be re-run", schema, table)
			missing = append(missing, fmt.Sprintf("%s.%s", schema, table))
			continue
		}

		copied, err := r.copyTable(schema, table)
		if err != nil {
			r.Logger.Errorf("    Error copying table %s.%s: %v", schema, table, err)
			r.Logger.Warningf("    Continuing with next table")
			failed = append(failed, fmt.Sprintf("%s.%s", schema, table))
			continue
		}
		totalRows += copied
	}

	if len(missing) > 0 {
		r.Logger.Errorf("%d table(s) were not created in the target:", len(missing))
		for _, t := range missing {
			r.Logger.Errorf("  - %s", t)
		}
	}
	r.Logger.Infof("Step 2/2 done: %d table(s) processed, %d row(s) copied", len(ordered), totalRows)
	return totalRows, missing, failed, nil
}

// copyTable truncates the target table, then streams the source rows into
// it in batch-size groups. All batches of one table share a transaction
// with a single commit, so a mid-table failure leaves the target empty.
func (r *RowReplicator) copyTable(schema, table string) (int64, error) {
	columns, err := r.SourceCat.TableColumns(schema, table)
	if err != nil {
		return 0, fmt.Errorf("fetching columns: %w", err)
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("no columns found for %s.%s", schema, table)
	}

	// Idempotent re-run support: target content is replaced, not appended.
	if err := r.Target.Exec(fmt.Sprintf("TRUNCATE TABLE %s.%s", schema, table)); err != nil {
		return 0, fmt.Errorf("truncating target: %w", err)
	}

	selectSQL := fmt.Sprintf("SELECT %s FROM %s.%s", strings.Join(columns, ", "), schema, table)
	rows, err := r.Source.DB.Query(selectSQL)
	if err != nil {
		return 0, fmt.Errorf("fetching rows: %w", err)
	}
	defer rows.Close()

	tx, err := r.Target.DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting target transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertStatement(schema, table, columns))
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var total int64
	batchIdx := 0
	batch := make([][]interface{}, 0, r.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		batchIdx++
		if err := insertBatch(stmt, len(columns), batch); err != nil {
			return fmt.Errorf("inserting batch %d: %w", batchIdx, err)
		}
		if batchIdx > 1 {
			r.Logger.Infof("      Inserted batch %d (%d rows)", batchIdx, len(batch))
		}
		total += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return 0, fmt.Errorf("scanning source row: %w", err)
		}
		batch = append(batch, values)

		if len(batch) == r.BatchSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("reading source rows: %w", err)
	}
	if err := flush(); err != nil {
		return 0, err
	}

	if total == 0 {
		r.Logger.Infof("    Table empty (0 rows)")
		return 0, tx.Commit()
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing target: %w", err)
	}
	r.Logger.Infof("    %d row(s) copied", total)
	return total, nil
}

// insertStatement builds a positional insert matching the source column
// order exactly; the batch values are bound in the same order.
func insertStatement(schema, table string, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf(":%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES (%s)",
		schema, table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

// insertBatch executes one batch as a single round trip. godror runs the
// prepared insert once per slice element when every bind value is a slice,
// so the rows are pivoted into one slice per column.
func insertBatch(stmt *sql.Stmt, columnCount int, batch [][]interface{}) error {
	args := make([]interface{}, columnCount)
	for col := 0; col < columnCount; col++ {
		values := make([]interface{}, len(batch))
		for i, row := range batch {
			values[i] = row[col]
		}
		args[col] = values
	}
	_, err := stmt.Exec(args...)
	return err
}
