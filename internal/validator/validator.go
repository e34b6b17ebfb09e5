// Package validator re-derives object inventories and row counts from both
// databases independently and reports their differences. It needs no
// mutation capability on either side.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/orashift/orashift/internal/catalog"
	"github.com/orashift/orashift/internal/connector"
	"github.com/orashift/orashift/pkg/models"
)

// Validator compares the source and target catalogs for a set of schemas.
type Validator struct {
	SourceCat *catalog.Catalog
	TargetCat *catalog.Catalog
	Logger    *logrus.Logger
}

// New creates a validator over two open connections.
func New(source, target *connector.Connector, logger *logrus.Logger) *Validator {
	return &Validator{
		SourceCat: catalog.New(source, logger),
		TargetCat: catalog.New(target, logger),
		Logger:    logger,
	}
}

// Validate builds the full report for the given schemas. Source-side
// catalog failures propagate; a target-side table that cannot be counted
// shows up as a table mismatch instead.
func (v *Validator) Validate(schemas []string) (models.ValidationReport, error) {
	report := models.ValidationReport{
		Objects: make(map[string]models.ValidationDetail, len(models.ValidationCategories)),
	}

	tables, err := v.validateTables(schemas)
	if err != nil {
		return report, err
	}
	report.Tables = tables

	report.Synonyms, err = v.compareSets(schemas, "synonyms", (*catalog.Catalog).SynonymNames)
	if err != nil {
		return report, err
	}
	report.Grants, err = v.compareSets(schemas, "grants", (*catalog.Catalog).GrantKeys)
	if err != nil {
		return report, err
	}

	for _, objType := range models.ValidationCategories {
		label := objType
		detail, err := v.compareSets(schemas, strings.ToLower(objType), func(c *catalog.Catalog, schema string) (map[string]bool, error) {
			return c.ObjectNames(schema, label)
		})
		if err != nil {
			return report, err
		}
		report.Objects[strings.ToLower(objType)] = detail
	}
	return report, nil
}

// validateTables compares per-table row counts. A table that cannot be
// counted on the target (typically because it is absent) is reported as a
// mismatch rather than failing the run.
func (v *Validator) validateTables(schemas []string) (models.ValidationDetail, error) {
	detail := models.ValidationDetail{Category: "tables"}
	for _, schema := range schemas {
		tables, err := v.SourceCat.ListTables(schema)
		if err != nil {
			return detail, fmt.Errorf("listing tables for %s: %w", schema, err)
		}
		for _, table := range tables {
			sourceCount, err := v.SourceCat.CountRows(schema, table)
			if err != nil {
				return detail, fmt.Errorf("counting %s.%s on source: %w", schema, table, err)
			}
			targetCount, err := v.TargetCat.CountRows(schema, table)
			if err != nil {
				v.Logger.Warningf("Could not count %s.%s on target: %v", schema, table, err)
				detail.Mismatches = append(detail.Mismatches,
					fmt.Sprintf("%s.%s: source=%d target=unreadable", schema, table, sourceCount))
				continue
			}
			if sourceCount != targetCount {
				detail.Mismatches = append(detail.Mismatches,
					fmt.Sprintf("%s.%s: source=%d target=%d", schema, table, sourceCount, targetCount))
			}
		}
	}
	return detail, nil
}

// compareSets computes the symmetric difference of one name set per schema.
// Missing and extra names are reported as separate sorted lines.
func (v *Validator) compareSets(schemas []string, category string, fetch func(*catalog.Catalog, string) (map[string]bool, error)) (models.ValidationDetail, error) {
	detail := models.ValidationDetail{Category: category}
	for _, schema := range schemas {
		sourceSet, err := fetch(v.SourceCat, schema)
		if err != nil {
			return detail, fmt.Errorf("fetching %s for %s on source: %w", category, schema, err)
		}
		targetSet, err := fetch(v.TargetCat, schema)
		if err != nil {
			return detail, fmt.Errorf("fetching %s for %s on target: %w", category, schema, err)
		}

		if missing := difference(sourceSet, targetSet); len(missing) > 0 {
			detail.Mismatches = append(detail.Mismatches,
				fmt.Sprintf("%s missing: %v", schema, missing))
		}
		if extra := difference(targetSet, sourceSet); len(extra) > 0 {
			detail.Mismatches = append(detail.Mismatches,
				fmt.Sprintf("%s extra: %v", schema, extra))
		}
	}
	return detail, nil
}

// difference returns the sorted names present in a but not in b.
func difference(a, b map[string]bool) []string {
	var names []string
	for name := range a {
		if !b[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
