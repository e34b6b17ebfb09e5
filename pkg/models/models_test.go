package models

import "testing"

func TestDDLCategoryOrder(t *testing.T) {
	// Tables must come first and package bodies last, after their specs.
	if DDLCategories[0].Tag != "TABLE" {
		t.Errorf("Expected TABLE first, got %s", DDLCategories[0].Tag)
	}
	last := DDLCategories[len(DDLCategories)-1]
	if last.Tag != "PACKAGE_BODY" {
		t.Errorf("Expected PACKAGE_BODY last, got %s", last.Tag)
	}
	if last.GenerationLabel != "PACKAGE BODY" || last.CatalogLabel != "PACKAGE BODY" {
		t.Errorf("Expected space-joined labels for the compound category, got %+v", last)
	}

	specIdx, bodyIdx := -1, -1
	for i, c := range DDLCategories {
		switch c.Tag {
		case "PACKAGE":
			specIdx = i
		case "PACKAGE_BODY":
			bodyIdx = i
		}
	}
	if specIdx < 0 || bodyIdx < specIdx {
		t.Errorf("Expected package specs before bodies, got spec=%d body=%d", specIdx, bodyIdx)
	}
}

func TestCategoryPredicates(t *testing.T) {
	for _, c := range DDLCategories {
		if got := c.IsTable(); got != (c.Tag == "TABLE") {
			t.Errorf("IsTable(%s) = %v", c.Tag, got)
		}
		wantPkg := c.Tag == "PACKAGE" || c.Tag == "PACKAGE_BODY"
		if got := c.IsPackage(); got != wantPkg {
			t.Errorf("IsPackage(%s) = %v, expected %v", c.Tag, got, wantPkg)
		}
	}
}

func TestSchemaResultClean(t *testing.T) {
	clean := SchemaResult{Schema: "HR", ObjectsApplied: 5, RowsCopied: 100}
	if !clean.Clean() {
		t.Error("Expected result without failures to be clean")
	}

	cases := []SchemaResult{
		{Schema: "HR", FailedObjects: []string{"HR.P_BAD (PROCEDURE)"}},
		{Schema: "HR", MissingTables: []string{"HR.EMP"}},
		{Schema: "HR", FailedTables: []string{"HR.EMP"}},
	}
	for _, c := range cases {
		if c.Clean() {
			t.Errorf("Expected result %+v not to be clean", c)
		}
	}
}

func TestMigrationSummaryTotals(t *testing.T) {
	summary := MigrationSummary{Schemas: []SchemaResult{
		{Schema: "HR", ObjectsApplied: 3, RowsCopied: 10},
		{Schema: "SALES", ObjectsApplied: 2, RowsCopied: 32},
	}}
	if got := summary.TotalObjects(); got != 5 {
		t.Errorf("Expected 5 total objects, got %d", got)
	}
	if got := summary.TotalRows(); got != 42 {
		t.Errorf("Expected 42 total rows, got %d", got)
	}
	if !summary.Clean() {
		t.Error("Expected summary without failures to be clean")
	}

	summary.Schemas[1].FailedTables = []string{"SALES.ORDERS"}
	if summary.Clean() {
		t.Error("Expected summary with a failed table not to be clean")
	}
}

func TestValidationReportAllValid(t *testing.T) {
	report := ValidationReport{
		Objects: map[string]ValidationDetail{
			"view": {Category: "view"},
		},
	}
	if !report.AllValid() {
		t.Error("Expected empty report to be valid")
	}

	report.Objects["view"] = ValidationDetail{
		Category:   "view",
		Mismatches: []string{"HR missing: [V_EMP]"},
	}
	if report.AllValid() {
		t.Error("Expected report with an object mismatch not to be valid")
	}

	report.Objects["view"] = ValidationDetail{Category: "view"}
	report.Tables.Mismatches = []string{"HR.EMP: source=10 target=9"}
	if report.AllValid() {
		t.Error("Expected report with a table mismatch not to be valid")
	}
}
