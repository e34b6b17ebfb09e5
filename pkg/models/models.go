package models

// ObjectCategory describes one replicated object category together with the
// labels the Oracle dialect expects for it. GenerationLabel is what
// DBMS_METADATA.GET_DDL takes as OBJECT_TYPE; CatalogLabel is what
// ALL_OBJECTS reports in its object_type column. The two differ from the
// internal tag only for compound categories (PACKAGE_BODY is requested and
// matched as "PACKAGE BODY").
type ObjectCategory struct {
	Tag             string
	GenerationLabel string
	CatalogLabel    string
}

// IsTable reports whether the category needs drop-and-recreate handling.
func (c ObjectCategory) IsTable() bool {
	return c.Tag == "TABLE"
}

// IsPackage reports whether the category can be re-derived from ALL_SOURCE.
func (c ObjectCategory) IsPackage() bool {
	return c.Tag == "PACKAGE" || c.Tag == "PACKAGE_BODY"
}

// DDLCategories lists the replicated categories in dependency order: tables
// before the objects that reference them, package bodies after their specs.
var DDLCategories = []ObjectCategory{
	{Tag: "TABLE", GenerationLabel: "TABLE", CatalogLabel: "TABLE"},
	{Tag: "VIEW", GenerationLabel: "VIEW", CatalogLabel: "VIEW"},
	{Tag: "SYNONYM", GenerationLabel: "SYNONYM", CatalogLabel: "SYNONYM"},
	{Tag: "TRIGGER", GenerationLabel: "TRIGGER", CatalogLabel: "TRIGGER"},
	{Tag: "PROCEDURE", GenerationLabel: "PROCEDURE", CatalogLabel: "PROCEDURE"},
	{Tag: "FUNCTION", GenerationLabel: "FUNCTION", CatalogLabel: "FUNCTION"},
	{Tag: "PACKAGE", GenerationLabel: "PACKAGE", CatalogLabel: "PACKAGE"},
	{Tag: "PACKAGE_BODY", GenerationLabel: "PACKAGE BODY", CatalogLabel: "PACKAGE BODY"},
}

// ValidationCategories lists the secondary object categories the validator
// reconciles by name set, in addition to tables, synonyms and grants.
var ValidationCategories = []string{"VIEW", "TRIGGER", "PROCEDURE", "FUNCTION"}

// ObjectDescriptor identifies one schema object produced by a catalog query.
type ObjectDescriptor struct {
	Category ObjectCategory
	Name     string
	Schema   string
}

// ForeignKey represents a foreign key relationship between two tables
// of the same schema.
type ForeignKey struct {
	Table           string
	ReferencedTable string
	ConstraintName  string
}

// SchemaResult aggregates the outcome of one schema's replication pass.
type SchemaResult struct {
	Schema         string
	ObjectsApplied int
	FailedObjects  []string
	RowsCopied     int64
	MissingTables  []string
	FailedTables   []string
}

// Clean reports whether the pass completed without any per-object or
// per-table failure.
func (r SchemaResult) Clean() bool {
	return len(r.FailedObjects) == 0 && len(r.MissingTables) == 0 && len(r.FailedTables) == 0
}

// MigrationSummary aggregates per-schema results for a whole copy run.
type MigrationSummary struct {
	Schemas []SchemaResult
}

// TotalObjects returns the number of objects applied across all schemas.
func (s MigrationSummary) TotalObjects() int {
	total := 0
	for _, r := range s.Schemas {
		total += r.ObjectsApplied
	}
	return total
}

// TotalRows returns the number of rows copied across all schemas.
func (s MigrationSummary) TotalRows() int64 {
	var total int64
	for _, r := range s.Schemas {
		total += r.RowsCopied
	}
	return total
}

// Clean reports whether every schema replicated without failures.
func (s MigrationSummary) Clean() bool {
	for _, r := range s.Schemas {
		if !r.Clean() {
			return false
		}
	}
	return true
}

// ValidationDetail holds the mismatch descriptions for one category.
// An empty list means the category is consistent.
type ValidationDetail struct {
	Category   string
	Mismatches []string
}

// Ok reports whether the category has no mismatches.
func (d ValidationDetail) Ok() bool {
	return len(d.Mismatches) == 0
}

// ValidationReport aggregates validation details for tables, synonyms,
// grants and each secondary object category.
type ValidationReport struct {
	Tables   ValidationDetail
	Synonyms ValidationDetail
	Grants   ValidationDetail
	Objects  map[string]ValidationDetail
}

// AllValid reports whether every category on every schema is consistent.
func (r ValidationReport) AllValid() bool {
	if !r.Tables.Ok() || !r.Synonyms.Ok() || !r.Grants.Ok() {
		return false
	}
	for _, detail := range r.Objects {
		if !detail.Ok() {
			return false
		}
	}
	return true
}
