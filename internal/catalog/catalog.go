// Package catalog wraps the Oracle data-dictionary queries shared by the
// replication and validation passes. All owner lookups are upper-cased
// before they reach the dictionary, which stores identifiers upper-cased.
package catalog

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/orashift/orashift/internal/connector"
	"github.com/orashift/orashift/internal/oraerr"
	"github.com/orashift/orashift/pkg/models"
)

// minPlausibleDDL is the shortest trimmed DDL that is not considered
// truncated output from the generation API.
const minPlausibleDDL = 10

// ObjectDDL pairs an object name with its generated creation text.
type ObjectDDL struct {
	Name string
	DDL  string
}

// Catalog runs dictionary queries against one connection.
type Catalog struct {
	Conn   *connector.Connector
	Logger *logrus.Logger
}

// New creates a catalog over an open connection.
func New(conn *connector.Connector, logger *logrus.Logger) *Catalog {
	return &Catalog{Conn: conn, Logger: logger}
}

// ConfigureMetadataSession disables storage clauses in generated DDL and
// enables SQL terminators. A database without DBMS_METADATA is tolerated
// with a warning; generation then runs with that database's defaults.
func (c *Catalog) ConfigureMetadataSession() error {
	err := c.Conn.Exec(`
		BEGIN
			DBMS_METADATA.SET_TRANSFORM_PARAM(DBMS_METADATA.SESSION_TRANSFORM, 'STORAGE', FALSE);
			DBMS_METADATA.SET_TRANSFORM_PARAM(DBMS_METADATA.SESSION_TRANSFORM, 'SEGMENT_ATTRIBUTES', FALSE);
			DBMS_METADATA.SET_TRANSFORM_PARAM(DBMS_METADATA.SESSION_TRANSFORM, 'SQLTERMINATOR', TRUE);
		END;`)
	if err != nil {
		if oraerr.IsMetadataUnavailable(err) {
			c.Logger.Warningf("DBMS_METADATA not available, continuing without transforms: %v", err)
			return nil
		}
		return err
	}
	return nil
}

// ListTables returns the schema's non-temporary tables ordered by name.
func (c *Catalog) ListTables(schema string) ([]string, error) {
	return c.Conn.QueryStrings(`
		SELECT table_name
		FROM all_tables
		WHERE owner = :1
		  AND temporary = 'N'
		ORDER BY table_name`,
		strings.ToUpper(schema))
}

// TableExists reports whether the table is present in the schema.
func (c *Catalog) TableExists(schema, table string) (bool, error) {
	n, err := c.Conn.QueryInt(`
		SELECT COUNT(*)
		FROM all_tables
		WHERE owner = :1
		  AND table_name = :2`,
		strings.ToUpper(schema), strings.ToUpper(table))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TableColumns returns the table's column names in declaration order.
// The order is load-bearing: the row copy binds insert values positionally
// against this exact sequence.
func (c *Catalog) TableColumns(schema, table string) ([]string, error) {
	return c.Conn.QueryStrings(`
		SELECT column_name
		FROM all_tab_columns
		WHERE owner = :1
		  AND table_name = :2
		ORDER BY column_id`,
		strings.ToUpper(schema), strings.ToUpper(table))
}

// CountRows returns the table's row count.
func (c *Catalog) CountRows(schema, table string) (int64, error) {
	return c.Conn.QueryInt(fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", schema, table))
}

// ObjectsWithDDL returns (name, generated DDL) pairs for one category of
// the schema, skipping system-generated objects, ordered by name. An
// unsupported category yields an empty list and a warning rather than an
// error. Generated text shorter than the plausibility floor is re-derived
// from ALL_SOURCE for package categories.
func (c *Catalog) ObjectsWithDDL(schema string, category models.ObjectCategory) ([]ObjectDDL, error) {
	owner := strings.ToUpper(schema)
	rows, err := c.Conn.DB.Query(`
		SELECT object_name,
		       dbms_metadata.get_ddl(:1, object_name, owner) ddl
		FROM all_objects
		WHERE owner = :2
		  AND object_type = :3
		  AND generated = 'N'
		ORDER BY object_name`,
		category.GenerationLabel, owner, category.CatalogLabel)
	if err != nil {
		if oraerr.IsUnsupportedType(err) {
			c.Logger.Warningf("Object type %s not supported by DBMS_METADATA on this database, skipping", category.Tag)
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var objects []ObjectDDL
	for rows.Next() {
		var name, ddl string
		if err := rows.Scan(&name, &ddl); err != nil {
			return nil, err
		}
		objects = append(objects, ObjectDDL{Name: name, DDL: ddl})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, obj := range objects {
		if len(strings.TrimSpace(obj.DDL)) >= minPlausibleDDL {
			continue
		}
		c.Logger.Warningf("%s.%s: generated DDL suspiciously short, may be truncated", schema, obj.Name)
		if !category.IsPackage() {
			continue
		}
		source, err := c.PackageSource(schema, obj.Name, category)
		if err != nil {
			c.Logger.Errorf("%s.%s: could not re-derive DDL from ALL_SOURCE: %v", schema, obj.Name, err)
			continue
		}
		objects[i].DDL = source
	}
	return objects, nil
}

// PackageSource rebuilds a package or package body definition by
// concatenating its ALL_SOURCE lines in order. Used when DBMS_METADATA
// returns truncated or unparsable text.
func (c *Catalog) PackageSource(schema, name string, category models.ObjectCategory) (string, error) {
	lines, err := c.Conn.QueryStrings(`
		SELECT text
		FROM all_source
		WHERE owner = :1
		  AND name = :2
		  AND type = :3
		ORDER BY line`,
		strings.ToUpper(schema), strings.ToUpper(name), category.CatalogLabel)
	if err != nil {
		return "", err
	}

	ddl := strings.Join(lines, "")
	if len(strings.TrimSpace(ddl)) < minPlausibleDDL {
		return "", fmt.Errorf("ALL_SOURCE text for %s.%s is empty or too short", schema, name)
	}
	// ALL_SOURCE stores the definition without its CREATE verb.
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(ddl)), "CREATE") {
		ddl = "CREATE OR REPLACE " + ddl
	}
	return ddl, nil
}

// SynonymNames returns the schema's synonym name set.
func (c *Catalog) SynonymNames(schema string) (map[string]bool, error) {
	return c.nameSet(`
		SELECT synonym_name
		FROM all_synonyms
		WHERE owner = :1`, schema)
}

// GrantKeys returns the schema's object grants as grantee:privilege:object
// composite keys.
func (c *Catalog) GrantKeys(schema string) (map[string]bool, error) {
	return c.nameSet(`
		SELECT grantee || ':' || privilege || ':' || table_name
		FROM all_tab_privs
		WHERE owner = :1`, schema)
}

// ObjectNames returns the schema's name set for one catalog object type.
func (c *Catalog) ObjectNames(schema, catalogLabel string) (map[string]bool, error) {
	owner := strings.ToUpper(schema)
	values, err := c.Conn.QueryStrings(`
		SELECT object_name
		FROM all_objects
		WHERE owner = :1
		  AND object_type = :2`,
		owner, catalogLabel)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set, nil
}

func (c *Catalog) nameSet(query, schema string) (map[string]bool, error) {
	values, err := c.Conn.QueryStrings(query, strings.ToUpper(schema))
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set, nil
}
