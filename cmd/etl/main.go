package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/urbanflux/complaints-etl/internal/config"
	"github.com/urbanflux/complaints-etl/internal/database"
	"github.com/urbanflux/complaints-etl/internal/etl"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage:
  etl run <input.csv>    run the pipeline against a source file
  etl init               initialize the database schema
  etl refresh-views      refresh reporting materialized views
  etl report             print the latest run summary`)
	os.Exit(2)
}

func setup() (*config.Config, *database.PostgresDBManager, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	dbpool, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	dbManager := database.NewPostgresDBManager(context.Background(), dbpool)

	return cfg, dbManager, func() { dbpool.Close() }, nil
}

func runPipeline(cfg *config.Config, dbManager *database.PostgresDBManager, inputPath string) error {
	if inputPath == "" {
		inputPath = cfg.InputPath
	}
	if inputPath == "" {
		return fmt.Errorf("no input file given (pass a path or set ETL_INPUT_PATH)")
	}

	service := etl.NewService(dbManager, *cfg)
	result, err := service.Execute(inputPath)
	if err != nil {
		return err
	}

	printStats(result)
	return nil
}

func printStats(result *etl.Result) {
	fmt.Println("ETL Summary")
	fmt.Println("-----------")
	if result.DryRun {
		fmt.Println("mode:              dry run (no database writes)")
	} else {
		fmt.Printf("run:               %s (%s)\n", result.RunID, result.Mode)
	}
	fmt.Printf("rows read:         %d\n", result.Stats.RowsRead)
	fmt.Printf("rows parsed:       %d\n", result.Stats.RowsParsed)
	fmt.Printf("rows validated:    %d\n", result.Stats.RowsValidated)
	fmt.Printf("rows inserted:     %d\n", result.Stats.RowsInserted)
	fmt.Printf("duplicates:        %d\n", result.Stats.RowsDuplicated)
	fmt.Printf("rejected:          %d\n", result.Stats.RowsRejected)
	fmt.Printf("parse errors:      %d\n", result.Stats.ParseErrors)
	fmt.Printf("validation errors: %d\n", result.Stats.ValidationErrors)
}

func printReport(dbManager *database.PostgresDBManager) error {
	run, err := dbManager.LatestRun()
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Printf("Last run: %s (%s, %s)\n", run.RunID, run.Mode, run.Status)
	fmt.Printf("started:  %s\n", run.StartedAt.Format(time.RFC3339))
	if run.CompletedAt != nil {
		fmt.Printf("finished: %s\n", run.CompletedAt.Format(time.RFC3339))
	}
	if run.ErrorMessage != "" {
		fmt.Printf("error:    %s\n", run.ErrorMessage)
	}
	fmt.Printf("read=%d parsed=%d validated=%d inserted=%d duplicated=%d rejected=%d parse_errors=%d validation_errors=%d\n",
		run.Stats.RowsRead, run.Stats.RowsParsed, run.Stats.RowsValidated, run.Stats.RowsInserted,
		run.Stats.RowsDuplicated, run.Stats.RowsRejected, run.Stats.ParseErrors, run.Stats.ValidationErrors)

	count, err := dbManager.CountComplaints()
	if err != nil {
		return err
	}
	fmt.Printf("complaints in store: %d\n", count)

	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	if len(os.Args) < 2 {
		usage()
	}

	cfg, dbManager, cleanup, err := setup()
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	startTime := time.Now()

	switch os.Args[1] {
	case "run":
		var inputPath string
		if len(os.Args) > 2 {
			inputPath = os.Args[2]
		}
		if err := runPipeline(cfg, dbManager, inputPath); err != nil {
			log.Fatalf("Pipeline failed: %v", err)
		}
	case "init":
		if err := dbManager.InitSchema(); err != nil {
			log.Fatalf("Schema initialization failed: %v", err)
		}
		log.Println("Database schema initialized.")
	case "refresh-views":
		if err := dbManager.RefreshViews(true); err != nil {
			log.Fatalf("View refresh failed: %v", err)
		}
	case "report":
		if err := printReport(dbManager); err != nil {
			log.Fatalf("Report failed: %v", err)
		}
	default:
		usage()
	}

	log.Printf("Execution time: %s", time.Since(startTime))
}
