package connector

import (
	"database/sql"
	"fmt"

	_ "github.com/godror/godror"
	"github.com/sirupsen/logrus"

	"github.com/orashift/orashift/internal/config"
)

// Role names one side of the migration.
type Role string

const (
	Source Role = "source"
	Target Role = "target"
)

// Connector holds an open connection to one database role and the query
// helpers the replication and validation passes use.
type Connector struct {
	Role   Role
	Config config.Config
	DB     *sql.DB
	Logger *logrus.Logger
}

// New creates a connector for a role. Connect must be called before use.
func New(role Role, cfg config.Config, logger *logrus.Logger) *Connector {
	return &Connector{
		Role:   role,
		Config: cfg,
		Logger: logger,
	}
}

// Connect opens and pings the Oracle connection for this role.
func (c *Connector) Connect() error {
	db, err := sql.Open("godror", buildDSN(c.Config))
	if err != nil {
		c.Logger.Errorf("Error opening %s connection: %v", c.Role, err)
		return err
	}

	// Sequential per-schema passes need exactly one session.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		c.Logger.Errorf("Failed to connect to %s database: %v", c.Role, err)
		c.Logger.Errorf("  DSN: %s", c.Config.DSN)
		c.Logger.Errorf("  User: %s", c.Config.User)
		if c.Config.ClientPath != "" {
			c.Logger.Errorf("  Oracle client path: %s", c.Config.ClientPath)
		} else if c.Role == Target {
			c.Logger.Errorf("  No client library path configured; older targets usually need %s_CLIENT_PATH", config.TargetPrefix)
		}
		db.Close()
		return err
	}

	c.DB = db
	c.Logger.Infof("Connected to %s database: %s", c.Role, c.Config.DSN)
	return nil
}

// Close releases the connection. Safe to call on a never-connected Connector.
func (c *Connector) Close() {
	if c.DB == nil {
		return
	}
	if err := c.DB.Close(); err != nil {
		c.Logger.Errorf("Error closing %s connection: %v", c.Role, err)
	} else {
		c.Logger.Debugf("Closed %s connection", c.Role)
	}
	c.DB = nil
}

// QueryStrings runs a single-column query and returns the values in order.
func (c *Connector) QueryStrings(query string, args ...interface{}) ([]string, error) {
	rows, err := c.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v.String)
	}
	return values, rows.Err()
}

// QueryInt runs a single-value query and returns the result as int64.
func (c *Connector) QueryInt(query string, args ...interface{}) (int64, error) {
	var n int64
	if err := c.DB.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Exec runs a statement without result inspection.
func (c *Connector) Exec(query string, args ...interface{}) error {
	_, err := c.DB.Exec(query, args...)
	return err
}

// ServerVersion returns the database version banner.
func (c *Connector) ServerVersion() (string, error) {
	var banner string
	err := c.DB.QueryRow("SELECT banner FROM v$version WHERE ROWNUM = 1").Scan(&banner)
	if err != nil {
		return "", err
	}
	return banner, nil
}

// DatabaseName returns the database name from v$database.
func (c *Connector) DatabaseName() (string, error) {
	var name string
	err := c.DB.QueryRow("SELECT name FROM v$database").Scan(&name)
	if err != nil {
		return "", err
	}
	return name, nil
}

// buildDSN assembles the godror logfmt connection string, including an
// explicit client library directory when one is configured.
func buildDSN(cfg config.Config) string {
	dsn := fmt.Sprintf(`user="%s" password="%s" connectString="%s"`,
		cfg.User, cfg.Password, cfg.DSN)
	if cfg.ClientPath != "" {
		dsn += fmt.Sprintf(` libDir="%s"`, cfg.ClientPath)
	}
	return dsn
}
