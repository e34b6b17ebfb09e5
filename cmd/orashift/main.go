package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orashift/orashift/internal/config"
	"github.com/orashift/orashift/internal/connector"
	"github.com/orashift/orashift/internal/logging"
	"github.com/orashift/orashift/internal/replicator"
	"github.com/orashift/orashift/internal/validator"
	"github.com/orashift/orashift/pkg/models"
)

func main() {
	var (
		envFile    string
		logLevel   string
		schemasCSV string
		batchSize  int
		testSource bool
		testTarget bool
	)

	rootCmd := &cobra.Command{
		Use:   "orashift",
		Short: "Replicates Oracle schemas and data to an older target database",
		Long: `orashift

Copies schema objects and table data from a source Oracle database to a
target database of an older dialect, then independently verifies the copy.
Connection parameters are read from ORACLE_SOURCE_* and ORACLE_TARGET_*
environment variables (optionally from a .env file).`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", ".env", "Path to .env file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")

	copyCmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy schema objects and table data from source to target",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Setup(logLevel)
			config.LoadEnvFile(envFile, logger)

			if !cmd.Flags().Changed("batch-size") {
				batchSize = config.GetEnvInt("ORASHIFT_BATCH_SIZE", batchSize)
			}
			project, err := config.Load(schemasCSV, batchSize)
			if err != nil {
				logger.Errorf("Configuration error: %v", err)
				os.Exit(1)
			}

			migrator := replicator.NewMigrator(connector.NewProvider(project, logger), project.BatchSize, logger)
			summary, err := migrator.Copy(project.Schemas)
			if err != nil {
				logger.Errorf("Migration aborted: %v", err)
				os.Exit(1)
			}
			printCopySummary(summary)
			if !summary.Clean() {
				os.Exit(1)
			}
			return nil
		},
	}
	copyCmd.Flags().StringVarP(&schemasCSV, "schemas", "s", "", "Comma-separated list of schemas to copy")
	copyCmd.Flags().IntVarP(&batchSize, "batch-size", "b", config.DefaultBatchSize, "Insert batch size in rows")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the copied schemas against the source",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Setup(logLevel)
			config.LoadEnvFile(envFile, logger)

			project, err := config.Load(schemasCSV, config.DefaultBatchSize)
			if err != nil {
				logger.Errorf("Configuration error: %v", err)
				os.Exit(1)
			}

			provider := connector.NewProvider(project, logger)
			source, target, err := provider.AcquirePair()
			if err != nil {
				logger.Errorf("Validation aborted: %v", err)
				os.Exit(1)
			}
			defer source.Close()
			defer target.Close()

			report, err := validator.New(source, target, logger).Validate(project.Schemas)
			if err != nil {
				logger.Errorf("Validation aborted: %v", err)
				os.Exit(1)
			}
			printValidationReport(report, logger)
			if !report.AllValid() {
				os.Exit(1)
			}
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&schemasCSV, "schemas", "s", "", "Comma-separated list of schemas to validate")

	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Test connectivity to the source and target databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Setup(logLevel)
			config.LoadEnvFile(envFile, logger)

			project, err := config.Load("", config.DefaultBatchSize)
			if err != nil {
				logger.Errorf("Configuration error: %v", err)
				os.Exit(1)
			}

			roles := []connector.Role{}
			if testSource || !testTarget {
				roles = append(roles, connector.Source)
			}
			if testTarget || !testSource {
				roles = append(roles, connector.Target)
			}

			provider := connector.NewProvider(project, logger)
			allOK := true
			for _, role := range roles {
				if !probeConnection(provider, role, logger) {
					allOK = false
				}
			}
			if !allOK {
				logger.Error("Some connections FAILED")
				os.Exit(1)
			}
			logger.Info("All connections tested successfully")
			return nil
		},
	}
	testCmd.Flags().BoolVar(&testSource, "source", false, "Test only the source connection")
	testCmd.Flags().BoolVar(&testTarget, "target", false, "Test only the target connection")

	rootCmd.AddCommand(copyCmd, validateCmd, testCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// probeConnection connects to one role and reports its version banner and
// database name.
func probeConnection(provider *connector.Provider, role connector.Role, logger *logrus.Logger) bool {
	logger.Infof("Testing %s connection...", role)
	conn, err := provider.Acquire(role)
	if err != nil {
		logger.Errorf("  %s connection FAILED: %v", role, err)
		return false
	}
	defer conn.Close()

	if version, err := conn.ServerVersion(); err == nil {
		logger.Infof("  Version: %s", version)
	} else {
		logger.Warningf("  Could not read version banner: %v", err)
	}
	if name, err := conn.DatabaseName(); err == nil {
		logger.Infof("  Database: %s", name)
	}
	logger.Infof("  %s connection OK", role)
	return true
}

// printCopySummary prints the per-schema migration outcome.
func printCopySummary(summary models.MigrationSummary) {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("MIGRATION SUMMARY")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Schemas processed: %d\n", len(summary.Schemas))
	fmt.Printf("Objects applied: %d\n", summary.TotalObjects())
	fmt.Printf("Rows copied: %d\n", summary.TotalRows())

	for _, result := range summary.Schemas {
		if result.Clean() {
			continue
		}
		fmt.Printf("\nSchema %s had failures:\n", result.Schema)
		for _, obj := range result.FailedObjects {
			fmt.Printf("  object failed: %s\n", obj)
		}
		for _, table := range result.MissingTables {
			fmt.Printf("  table missing in target: %s\n", table)
		}
		for _, table := range result.FailedTables {
			fmt.Printf("  table copy failed: %s\n", table)
		}
	}
	fmt.Println(strings.Repeat("=", 50))
}

// printValidationReport prints each category's outcome and its mismatches.
func printValidationReport(report models.ValidationReport, logger *logrus.Logger) {
	logger.Info(strings.Repeat("=", 70))
	logger.Info("VALIDATION SUMMARY")
	logger.Info(strings.Repeat("=", 70))

	if report.AllValid() {
		logger.Info("Validation finished without differences")
		return
	}

	logger.Error("Differences found:")
	printDetail(report.Tables, logger)
	printDetail(report.Synonyms, logger)
	printDetail(report.Grants, logger)
	for _, objType := range models.ValidationCategories {
		if detail, ok := report.Objects[strings.ToLower(objType)]; ok {
			printDetail(detail, logger)
		}
	}
}

func printDetail(detail models.ValidationDetail, logger *logrus.Logger) {
	label := strings.ToUpper(detail.Category)
	if detail.Ok() {
		logger.Infof("  %s: OK", label)
		return
	}
	logger.Errorf("  %s:", label)
	for _, mismatch := range detail.Mismatches {
		logger.Errorf("    - %s", mismatch)
	}
}
