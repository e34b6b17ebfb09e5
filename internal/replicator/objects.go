package replicator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/orashift/orashift/internal/catalog"
	"github.com/orashift/orashift/internal/connector"
	"github.com/orashift/orashift/internal/oraerr"
	"github.com/orashift/orashift/internal/splitter"
	"github.com/orashift/orashift/pkg/models"
)

// applyState tracks the per-object recovery policy. Every object starts at
// stateFirstAttempt and moves through at most one drop-and-recreate and one
// clean-and-split retry before landing in stateApplied or stateFailed.
type applyState int

const (
	stateFirstAttempt applyState = iota
	stateRecreate
	stateSplitRetry
	stateApplied
	stateFailed
)

// ObjectReplicator copies schema objects from the source catalog to the
// target database, category by category in dependency order.
type ObjectReplicator struct {
	Source    *connector.Connector
	Target    *connector.Connector
	SourceCat *catalog.Catalog
	TargetCat *catalog.Catalog
	Logger    *logrus.Logger
}

// NewObjectReplicator creates an object replicator over two open connections.
func NewObjectReplicator(source, target *connector.Connector, logger *logrus.Logger) *ObjectReplicator {
	return &ObjectReplicator{
		Source:    source,
		Target:    target,
		SourceCat: catalog.New(source, logger),
		TargetCat: catalog.New(target, logger),
		Logger:    logger,
	}
}

// ReplicateObjects copies every replicated category of the schema and
// returns the count of objects applied plus the names that failed. A single
// bad object never aborts its category; only catalog query failures
// propagate.
func (r *ObjectReplicator) ReplicateObjects(schema string) (int, []string, error) {
	r.Logger.Infof(">>> Step 1/2: copying DDL objects for schema %s", schema)

	if err := r.SourceCat.ConfigureMetadataSession(); err != nil {
		return 0, nil, fmt.Errorf("configuring DBMS_METADATA session: %w", err)
	}

	applied := 0
	var failed []string
	for _, category := range models.DDLCategories {
		r.Logger.Infof("  Processing objects of type %s", category.Tag)

		objects, err := r.SourceCat.ObjectsWithDDL(schema, category)
		if err != nil {
			return applied, failed, fmt.Errorf("listing %s objects for %s: %w", category.Tag, schema, err)
		}
		if len(objects) == 0 {
			r.Logger.Infof("    No objects of type %s found", category.Tag)
			continue
		}
		r.Logger.Infof("    Found %d object(s) of type %s", len(objects), category.Tag)

		for _, obj := range objects {
			if r.applyObject(schema, category, obj) {
				applied++
			} else {
				failed = append(failed, fmt.Sprintf("%s.%s (%s)", schema, obj.Name, category.Tag))
			}
		}
	}

	r.Logger.Infof("Step 1/2 done: %d object(s) applied", applied)
	return applied, failed, nil
}

// applyObject drives one object through the recovery state machine and
// reports whether it ended up applied on the target.
func (r *ObjectReplicator) applyObject(schema string, category models.ObjectCategory, obj catalog.ObjectDDL) bool {
	ddl := obj.DDL
	state := stateFirstAttempt

	for {
		switch state {
		case stateFirstAttempt:
			if category.IsTable() {
				if exists, err := r.TargetCat.TableExists(schema, obj.Name); err == nil && exists {
					r.Logger.Infof("    Table %s.%s already exists, dropping for recreate", schema, obj.Name)
					r.dropTable(schema, obj.Name)
				}
			}
			err := r.Target.Exec(ddl)
			state = transition(state, err, category.IsTable())
			if err != nil && state == stateFailed {
				r.Logger.Errorf("    Error creating %s.%s: %v", schema, obj.Name, err)
			}
			if err != nil && state == stateApplied {
				r.Logger.Warningf("    %s.%s already exists, ignoring", schema, obj.Name)
			}

		case stateRecreate:
			if !r.dropTable(schema, obj.Name) {
				r.Logger.Errorf("    Could not drop table %s.%s for recreate", schema, obj.Name)
				state = stateFailed
				continue
			}
			if err := r.Target.Exec(ddl); err != nil {
				r.Logger.Errorf("    Error recreating %s.%s after drop: %v", schema, obj.Name, err)
				state = stateFailed
				continue
			}
			r.Logger.Infof("    %s.%s recreated", schema, obj.Name)
			state = stateApplied

		case stateSplitRetry:
			r.Logger.Warningf("    %s.%s: DDL rejected by target parser, retrying statement by statement", schema, obj.Name)
			if category.IsPackage() {
				if source, err := r.SourceCat.PackageSource(schema, obj.Name, category); err == nil {
					ddl = source
				} else {
					r.Logger.Warningf("    Could not fetch %s.%s from ALL_SOURCE: %v", schema, obj.Name, err)
				}
			}
			state = stateApplied
			for _, stmt := range splitter.Split(ddl) {
				if err := r.Target.Exec(stmt); err != nil {
					r.Logger.Errorf("    Error creating %s.%s after cleanup: %v", schema, obj.Name, err)
					state = stateFailed
					break
				}
			}

		case stateApplied:
			r.Logger.Infof("    %s.%s applied", schema, obj.Name)
			return true

		case stateFailed:
			r.Logger.Warningf("    Skipping %s.%s, continuing with next object", schema, obj.Name)
			return false
		}
	}
}

// transition computes the next recovery state from an execution outcome.
// Pure, so the recovery policy is testable without a database.
func transition(state applyState, err error, isTable bool) applyState {
	if err == nil {
		return stateApplied
	}
	switch {
	case oraerr.IsAlreadyExists(err):
		// A table that still exists gets one drop-and-recreate pass; any
		// other object already present counts as applied.
		if isTable && state == stateFirstAttempt {
			return stateRecreate
		}
		if !isTable {
			return stateApplied
		}
		return stateFailed
	case oraerr.IsParseError(err):
		if state == stateFirstAttempt {
			return stateSplitRetry
		}
		return stateFailed
	default:
		return stateFailed
	}
}

// dropTable removes a table ahead of recreation, cascading its constraints
// and retrying a plain drop when the cascade form fails. Returns false when
// the table was absent or could not be removed.
func (r *ObjectReplicator) dropTable(schema, table string) bool {
	exists, err := r.TargetCat.TableExists(schema, table)
	if err != nil || !exists {
		return false
	}

	if err := r.Target.Exec(fmt.Sprintf("DROP TABLE %s.%s CASCADE CONSTRAINTS", schema, table)); err != nil {
		r.Logger.Warningf("    Error dropping table %s.%s with cascade: %v", schema, table, err)
		if err := r.Target.Exec(fmt.Sprintf("DROP TABLE %s.%s", schema, table)); err != nil {
			r.Logger.Errorf("    Could not drop table %s.%s: %v", schema, table, err)
			return false
		}
	}
	r.Logger.Infof("    Table %s.%s dropped", schema, table)
	return true
}
