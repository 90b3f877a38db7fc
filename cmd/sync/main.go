package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"phenosurvey/adapters/postgres"
	"phenosurvey/internal/errors"
)

func main() {
	var tableName string
	var sourceFile string
	var dropFirst bool

	rootCmd := &cobra.Command{
		Use:   "phenosurvey-sync",
		Short: "Synchronize a database table with a file artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tableName != "diagnosis" {
				return errors.InvalidInput(fmt.Sprintf("table %q is not a supported sync target", tableName))
			}
			_ = godotenv.Load()
			databaseURL := os.Getenv("DATABASE_URL")
			if databaseURL == "" {
				return errors.ConfigInvalid("DATABASE_URL is required")
			}

			records, err := postgres.ReadOutcomeRecords(sourceFile)
			if err != nil {
				return err
			}
			db, err := postgres.Connect(databaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			return postgres.NewOutcomesRepository(db).Sync(cmd.Context(), records, dropFirst)
		},
	}
	rootCmd.Flags().StringVar(&tableName, "table-name", "", "Table to synchronize")
	rootCmd.Flags().StringVar(&sourceFile, "source-file", "", "Source file with the records to upload")
	rootCmd.Flags().BoolVar(&dropFirst, "drop-first", false, "Drop all remote records before uploading")
	_ = rootCmd.MarkFlagRequired("table-name")
	_ = rootCmd.MarkFlagRequired("source-file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
