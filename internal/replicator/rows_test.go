package replicator

import (
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jaswdr/faker"
)

func TestReplicateRowsBatchingSingleCommit(t *testing.T) {
	source, sourceMock, target, targetMock := newMockPair(t)
	rep := NewRowReplicator(source, target, 500, testLogger())

	sourceMock.ExpectQuery("SELECT table_name FROM all_tables").
		WithArgs("HR").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("EMP"))
	sourceMock.ExpectQuery("FROM all_constraints").
		WithArgs("HR", "HR").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "referenced_table", "constraint_name"}))
	targetMock.ExpectQuery(`SELECT COUNT\(\*\) FROM all_tables`).
		WithArgs("HR", "EMP").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	sourceMock.ExpectQuery("SELECT column_name FROM all_tab_columns").
		WithArgs("HR", "EMP").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("EMPNO").AddRow("ENAME"))
	targetMock.ExpectExec(`TRUNCATE TABLE HR\.EMP`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// 1250 rows against a batch size of 500 gives two full batches plus a
	// final partial one, each a single exec, all inside a single transaction.
	fake := faker.New()
	sourceRows := sqlmock.NewRows([]string{"EMPNO", "ENAME"})
	for i := 0; i < 1250; i++ {
		sourceRows.AddRow(i+1, fake.Person().Name())
	}
	sourceMock.ExpectQuery(`SELECT EMPNO, ENAME FROM HR\.EMP`).
		WillReturnRows(sourceRows)

	targetMock.ExpectBegin()
	prep := targetMock.ExpectPrepare(`INSERT INTO HR\.EMP`)
	for _, rows := range []int64{500, 500, 250} {
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, rows))
	}
	targetMock.ExpectCommit()

	total, missing, failed, err := rep.ReplicateRows("HR")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if total != 1250 {
		t.Errorf("Expected 1250 rows copied, got %d", total)
	}
	if len(missing) != 0 || len(failed) != 0 {
		t.Errorf("Expected no missing or failed tables, got missing=%v failed=%v", missing, failed)
	}
	if err := targetMock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet target expectations: %v", err)
	}
	if err := sourceMock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet source expectations: %v", err)
	}
}

func TestReplicateRowsMissingTargetTable(t *testing.T) {
	source, sourceMock, target, targetMock := newMockPair(t)
	rep := NewRowReplicator(source, target, 500, testLogger())

	sourceMock.ExpectQuery("SELECT table_name FROM all_tables").
		WithArgs("HR").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("EMP"))
	sourceMock.ExpectQuery("FROM all_constraints").
		WithArgs("HR", "HR").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "referenced_table", "constraint_name"}))
	targetMock.ExpectQuery(`SELECT COUNT\(\*\) FROM all_tables`).
		WithArgs("HR", "EMP").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	total, missing, failed, err := rep.ReplicateRows("HR")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if total != 0 {
		t.Errorf("Expected 0 rows copied, got %d", total)
	}
	if len(missing) != 1 || missing[0] != "HR.EMP" {
		t.Errorf("Expected HR.EMP reported missing, got %v", missing)
	}
	if len(failed) != 0 {
		t.Errorf("Expected no failed tables, got %v", failed)
	}
}

func TestReplicateRowsFailureDoesNotStopRemainingTables(t *testing.T) {
	source, sourceMock, target, targetMock := newMockPair(t)
	rep := NewRowReplicator(source, target, 500, testLogger())

	sourceMock.ExpectQuery("SELECT table_name FROM all_tables").
		WithArgs("HR").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("BROKEN").AddRow("DEPT"))
	sourceMock.ExpectQuery("FROM all_constraints").
		WithArgs("HR", "HR").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "referenced_table", "constraint_name"}))

	// First table fails at the truncate step.
	targetMock.ExpectQuery(`SELECT COUNT\(\*\) FROM all_tables`).
		WithArgs("HR", "BROKEN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	sourceMock.ExpectQuery("SELECT column_name FROM all_tab_columns").
		WithArgs("HR", "BROKEN").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("ID"))
	targetMock.ExpectExec(`TRUNCATE TABLE HR\.BROKEN`).
		WillReturnError(errors.New("ORA-00054: resource busy"))

	// Second table still copies.
	targetMock.ExpectQuery(`SELECT COUNT\(\*\) FROM all_tables`).
		WithArgs("HR", "DEPT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	sourceMock.ExpectQuery("SELECT column_name FROM all_tab_columns").
		WithArgs("HR", "DEPT").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("DEPTNO").AddRow("DNAME"))
	targetMock.ExpectExec(`TRUNCATE TABLE HR\.DEPT`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	sourceMock.ExpectQuery(`SELECT DEPTNO, DNAME FROM HR\.DEPT`).
		WillReturnRows(sqlmock.NewRows([]string{"DEPTNO", "DNAME"}).
			AddRow(10, "ACCOUNTING"))
	targetMock.ExpectBegin()
	prep := targetMock.ExpectPrepare(`INSERT INTO HR\.DEPT`)
	prep.ExpectExec().
		WithArgs([]interface{}{10}, []interface{}{"ACCOUNTING"}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	targetMock.ExpectCommit()

	total, missing, failed, err := rep.ReplicateRows("HR")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if total != 1 {
		t.Errorf("Expected 1 row copied, got %d", total)
	}
	if len(failed) != 1 || failed[0] != "HR.BROKEN" {
		t.Errorf("Expected HR.BROKEN reported failed, got %v", failed)
	}
	if len(missing) != 0 {
		t.Errorf("Expected no missing tables, got %v", missing)
	}
}

func TestReplicateRowsOrdersParentsFirst(t *testing.T) {
	source, sourceMock, target, targetMock := newMockPair(t)
	rep := NewRowReplicator(source, target, 500, testLogger())

	sourceMock.ExpectQuery("SELECT table_name FROM all_tables").
		WithArgs("HR").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("DEPT").AddRow("EMP"))
	sourceMock.ExpectQuery("FROM all_constraints").
		WithArgs("HR", "HR").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "referenced_table", "constraint_name"}).
			AddRow("DEPT", "EMP", "FK_ODD"))

	// EMP is the referenced parent here, so it must be processed first.
	for _, table := range []string{"EMP", "DEPT"} {
		targetMock.ExpectQuery(`SELECT COUNT\(\*\) FROM all_tables`).
			WithArgs("HR", table).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		sourceMock.ExpectQuery("SELECT column_name FROM all_tab_columns").
			WithArgs("HR", table).
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("ID"))
		targetMock.ExpectExec("TRUNCATE TABLE HR." + table).
			WillReturnResult(sqlmock.NewResult(0, 0))
		sourceMock.ExpectQuery("SELECT ID FROM HR." + table).
			WillReturnRows(sqlmock.NewRows([]string{"ID"}))
		targetMock.ExpectBegin()
		targetMock.ExpectPrepare("INSERT INTO HR." + table)
		targetMock.ExpectCommit()
	}

	if _, _, _, err := rep.ReplicateRows("HR"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := targetMock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet target expectations: %v", err)
	}
	if err := sourceMock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet source expectations: %v", err)
	}
}

func TestInsertBatchPivotsRowsIntoColumnSlices(t *testing.T) {
	_, _, target, targetMock := newMockPair(t)

	targetMock.ExpectBegin()
	prep := targetMock.ExpectPrepare(`INSERT INTO HR\.EMP`)
	// One exec for the whole batch, bound as one slice per column.
	prep.ExpectExec().
		WithArgs([]interface{}{1, 2, 3}, []interface{}{"A", "B", "C"}).
		WillReturnResult(sqlmock.NewResult(0, 3))
	targetMock.ExpectCommit()

	tx, err := target.DB.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	stmt, err := tx.Prepare(insertStatement("HR", "EMP", []string{"ID", "NAME"}))
	if err != nil {
		t.Fatalf("Failed to prepare insert: %v", err)
	}

	batch := [][]interface{}{{1, "A"}, {2, "B"}, {3, "C"}}
	if err := insertBatch(stmt, 2, batch); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	if err := targetMock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestInsertStatement(t *testing.T) {
	got := insertStatement("HR", "EMP", []string{"EMPNO", "ENAME", "SAL"})
	want := "INSERT INTO HR.EMP (EMPNO, ENAME, SAL) VALUES (:1, :2, :3)"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if strings.Count(got, ":") != 3 {
		t.Errorf("Expected one placeholder per column, got %q", got)
	}
}
