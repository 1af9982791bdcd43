// Command admin is the operational surface for managing mapping entries
// and submitting reminder records. The notifier binary only dispatches;
// record intake and reference-table administration happen here.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"expiry_reminder_service/internal/app"
	"expiry_reminder_service/internal/infra/cache"
	"expiry_reminder_service/internal/infra/config"
	idb "expiry_reminder_service/internal/infra/database"
	"expiry_reminder_service/internal/infra/logger"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: admin <command> [flags]

Commands:
  add-mapping     -category C -subcategory S [-description D]
  remove-mapping  -category C -subcategory S
  list-mappings
  submit          -category C -subcategory S -expiry RFC3339 -lead-days N -recipients a,b
  list-pending
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	command := os.Args[1]
	args := os.Args[2:]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg)
	log := logger.Get()

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()

	mappingRepo := idb.NewPostgresMappingRepository(db)
	recordRepo := idb.NewPostgresRecordRepository(db)

	var cacheStore cache.Store
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("FATAL: Could not connect to Redis: %v", err)
		}
		defer redisStore.Close()
		cacheStore = redisStore
	} else {
		// Without a shared store each process caches on its own; the
		// write-through invalidation below still keeps this process coherent.
		cacheStore = cache.NewMemoryStore()
	}
	mappingCache := cache.NewMappingCache(cacheStore, mappingRepo, cfg.LookupTimeout, log)

	clock := app.NewSystemClock()
	validator := app.NewRecordValidator(mappingCache, clock)
	recordService := app.NewRecordService(validator, recordRepo, log)
	adminService := app.NewAdminService(mappingRepo, mappingCache, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch command {
	case "add-mapping":
		fs := flag.NewFlagSet("add-mapping", flag.ExitOnError)
		category := fs.String("category", "", "mapping category")
		subcategory := fs.String("subcategory", "", "mapping subcategory")
		description := fs.String("description", "", "optional description")
		fs.Parse(args)
		entry, err := adminService.AddEntry(ctx, *category, *subcategory, *description)
		if err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		fmt.Printf("added mapping %d: %s / %s\n", entry.ID, entry.Category, entry.Subcategory)

	case "remove-mapping":
		fs := flag.NewFlagSet("remove-mapping", flag.ExitOnError)
		category := fs.String("category", "", "mapping category")
		subcategory := fs.String("subcategory", "", "mapping subcategory")
		fs.Parse(args)
		if err := adminService.RemoveEntry(ctx, *category, *subcategory); err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		fmt.Printf("removed mapping %s / %s\n", *category, *subcategory)

	case "list-mappings":
		entries, err := adminService.ListEntries(ctx)
		if err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		for _, e := range entries {
			fmt.Printf("%d\t%s / %s\t%s\n", e.ID, e.Category, e.Subcategory, e.Description.String)
		}

	case "submit":
		fs := flag.NewFlagSet("submit", flag.ExitOnError)
		category := fs.String("category", "", "record category")
		subcategory := fs.String("subcategory", "", "record subcategory")
		expiry := fs.String("expiry", "", "expiry instant, RFC3339")
		leadDays := fs.Int("lead-days", 0, "whole days before expiry to remind")
		recipients := fs.String("recipients", "", "comma-separated recipient addresses")
		fs.Parse(args)

		expiryAt, err := time.Parse(time.RFC3339, *expiry)
		if err != nil {
			log.Fatalf("FATAL: invalid -expiry: %v", err)
		}
		candidate := app.Candidate{
			Category:    *category,
			Subcategory: *subcategory,
			ExpiryAt:    expiryAt,
			LeadDays:    *leadDays,
			Recipients:  splitRecipients(*recipients),
		}
		rec, result, err := recordService.Submit(ctx, candidate)
		if err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		if !result.Accepted() {
			fmt.Println("rejected:")
			for _, f := range result.Failures {
				fmt.Printf("  %s: %s\n", f.Code, f.Message)
			}
			os.Exit(1)
		}
		fmt.Printf("accepted record %d, reminder at %s\n", rec.ID, rec.ReminderAt.Format(time.RFC3339))

	case "list-pending":
		records, err := recordService.ListPending(ctx)
		if err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		for _, r := range records {
			fmt.Printf("%d\t%s / %s\texpires %s\treminds %s\n",
				r.ID, r.Category, r.Subcategory,
				r.ExpiryAt.Format(time.RFC3339), r.ReminderAt.Format(time.RFC3339))
		}

	default:
		usage()
	}
}

func splitRecipients(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	recipients := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	return recipients
}
