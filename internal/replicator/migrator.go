package replicator

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/orashift/orashift/internal/connector"
	"github.com/orashift/orashift/pkg/models"
)

// Migrator sequences the DDL and data passes per schema. Schemas are
// processed one at a time in the given order; within a schema the DDL pass
// fully completes before data replication begins. Each schema uses a fresh
// connection pair, released before the next schema starts.
type Migrator struct {
	Provider  *connector.Provider
	BatchSize int
	Logger    *logrus.Logger
}

// NewMigrator creates a migrator over a connection provider.
func NewMigrator(provider *connector.Provider, batchSize int, logger *logrus.Logger) *Migrator {
	return &Migrator{Provider: provider, BatchSize: batchSize, Logger: logger}
}

// Copy replicates every schema in order. Per-object and per-table failures
// are aggregated into the summary and never abort the run; only
// connectivity and catalog query failures do.
func (m *Migrator) Copy(schemas []string) (models.MigrationSummary, error) {
	m.Logger.Info(strings.Repeat("=", 70))
	m.Logger.Info("STARTING MIGRATION")
	m.Logger.Info(strings.Repeat("=", 70))
	m.Logger.Infof("Schemas to process: %s", strings.Join(schemas, ", "))
	m.Logger.Infof("Batch size: %d rows", m.BatchSize)

	var summary models.MigrationSummary
	for i, schema := range schemas {
		m.Logger.Info(strings.Repeat("=", 70))
		m.Logger.Infof("PROCESSING SCHEMA %d/%d: %s", i+1, len(schemas), schema)
		m.Logger.Info(strings.Repeat("=", 70))

		result, err := m.copySchema(schema)
		summary.Schemas = append(summary.Schemas, result)
		if err != nil {
			return summary, err
		}
		m.Logger.Infof("Schema %s finished: %d object(s) applied, %d row(s) copied",
			schema, result.ObjectsApplied, result.RowsCopied)
	}

	m.Logger.Info(strings.Repeat("=", 70))
	m.Logger.Infof("MIGRATION FINISHED: %d schema(s), %d object(s), %d row(s)",
		len(summary.Schemas), summary.TotalObjects(), summary.TotalRows())
	m.Logger.Info(strings.Repeat("=", 70))
	return summary, nil
}

// copySchema runs both passes for one schema on a dedicated connection
// pair, released on every exit path.
func (m *Migrator) copySchema(schema string) (models.SchemaResult, error) {
	result := models.SchemaResult{Schema: schema}

	source, target, err := m.Provider.AcquirePair()
	if err != nil {
		return result, err
	}
	defer source.Close()
	defer target.Close()

	objects := NewObjectReplicator(source, target, m.Logger)
	applied, failedObjects, err := objects.ReplicateObjects(schema)
	result.ObjectsApplied = applied
	result.FailedObjects = failedObjects
	if err != nil {
		return result, err
	}

	rows := NewRowReplicator(source, target, m.BatchSize, m.Logger)
	copied, missing, failedTables, err := rows.ReplicateRows(schema)
	result.RowsCopied = copied
	result.MissingTables = missing
	result.FailedTables = failedTables
	return result, err
}
