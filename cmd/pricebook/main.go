package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/bansang/pricebook_backend/config"
	"github.com/bansang/pricebook_backend/ingest"
	"github.com/bansang/pricebook_backend/models"
	"github.com/bansang/pricebook_backend/utils"
)

const usageText = `usage: pricebook <command> [options]

commands:
  ingest <file> [--supplier <id>] [--dry-run] [--sheet <name>]
  report <batch-id>
  patterns list|add|disable [options]
  suppliers list|add|deactivate [options]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.ConnectDatabase(); err != nil {
		fmt.Fprintf(os.Stderr, "cannot open database: %v\n", err)
		os.Exit(1)
	}
	models.MigrateTable()

	switch os.Args[1] {
	case "ingest":
		os.Exit(runIngest(ctx, os.Args[2:]))
	case "report":
		os.Exit(runReport(ctx, os.Args[2:]))
	case "patterns":
		os.Exit(runPatterns(ctx, os.Args[2:]))
	case "suppliers":
		os.Exit(runSuppliers(ctx, os.Args[2:]))
	default:
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
}

// runIngest executes one batch. Exit 0 on committed (or a dry run that would
// commit), 1 on rolled_back, 2 on usage errors.
func runIngest(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	supplierId := fs.Int("supplier", 0, "Explicit supplier id (overrides filename inference)")
	dryRun := fs.Bool("dry-run", false, "Process the file but roll back instead of committing")
	sheet := fs.String("sheet", "", "Sheet name (default: first sheet)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "ingest requires exactly one file argument")
		return 2
	}

	report, err := ingest.NewCoordinator().Run(ctx, ingest.Options{
		FilePath:   fs.Arg(0),
		SheetName:  *sheet,
		SupplierId: *supplierId,
		DryRun:     *dryRun,
	})
	if report != nil {
		fmt.Print(report.Render())
	}
	if err != nil {
		if !errors.Is(err, ingest.ErrSupplierUnknown) &&
			!errors.Is(err, ingest.ErrSheetUnreadable) &&
			!errors.Is(err, ingest.ErrHeaderNotFound) &&
			!errors.Is(err, ingest.ErrMappingIncomplete) {
			fmt.Fprintf(os.Stderr, "ingest failed: %v\n", err)
		}
		return 1
	}
	if report.Status == models.BatchStatusCommitted {
		return 0
	}
	if report.DryRun && report.WouldCommit {
		return 0
	}
	return 1
}

func runReport(ctx context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "report requires exactly one batch-id argument")
		return 2
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid batch id %q\n", args[0])
		return 2
	}

	batch, err := models.GetUploadBatch(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "batch %d: %v\n", id, err)
		return 1
	}
	supplierName := fmt.Sprintf("supplier %d", batch.SupplierId)
	if supplier, err := models.GetSupplier(ctx, batch.SupplierId); err == nil {
		supplierName = supplier.Name
	}
	fmt.Print(ingest.RenderStoredBatch(batch, supplierName))
	return 0
}

func runPatterns(ctx context.Context, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "patterns requires a subcommand: list|add|disable")
		return 2
	}
	switch args[0] {
	case "list":
		patterns, err := models.ListExtractionPatterns(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list patterns: %v\n", err)
			return 1
		}
		for _, p := range patterns {
			fmt.Printf("#%d spec=%q unit=%q method=%s value=%s success=%d failure=%d notes=%q\n",
				p.ID, p.SpecificationPattern, p.UnitPattern, p.Method,
				p.ExtractionValue.String(), p.SuccessCount, p.FailureCount, p.Notes)
		}
		return 0
	case "add":
		fs := flag.NewFlagSet("patterns add", flag.ContinueOnError)
		spec := fs.String("spec", "", "Specification pattern (* as prefix/suffix wildcard)")
		unit := fs.String("unit", "*", "Unit pattern (* matches any unit)")
		method := fs.String("method", "", "Extraction method")
		value := fs.String("value", "0", "Extraction value (count, grams or regex multiplier)")
		notes := fs.String("notes", "", "Operator notes")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		extractionValue, err := decimal.NewFromString(*value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --value %q\n", *value)
			return 2
		}
		pattern, err := models.CreateExtractionPattern(ctx, &models.NewExtractionPattern{
			SpecificationPattern: *spec,
			UnitPattern:          *unit,
			Method:               *method,
			ExtractionValue:      extractionValue,
			Notes:                *notes,
		})
		if err != nil {
			printInputError("add pattern", err)
			return 2
		}
		fmt.Printf("created pattern #%d\n", pattern.ID)
		return 0
	case "disable":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "patterns disable requires a pattern id")
			return 2
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid pattern id %q\n", args[1])
			return 2
		}
		if _, err := models.DisableExtractionPattern(ctx, id); err != nil {
			fmt.Fprintf(os.Stderr, "disable pattern: %v\n", err)
			return 1
		}
		fmt.Printf("disabled pattern #%d\n", id)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown patterns subcommand %q\n", args[0])
		return 2
	}
}

// printInputError expands validator errors into per-field messages.
func printInputError(action string, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for field, tag := range utils.ProcessValidationErrors(verrs) {
			fmt.Fprintf(os.Stderr, "%s: invalid %s (%s)\n", action, field, tag)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", action, err)
}

func runSuppliers(ctx context.Context, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "suppliers requires a subcommand: list|add|deactivate")
		return 2
	}
	switch args[0] {
	case "list":
		suppliers, err := models.ListSuppliers(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list suppliers: %v\n", err)
			return 1
		}
		for _, s := range suppliers {
			fmt.Printf("#%d %s business_number=%q active=%t\n", s.ID, s.Name, s.BusinessNumber, *s.IsActive)
		}
		return 0
	case "add":
		fs := flag.NewFlagSet("suppliers add", flag.ContinueOnError)
		name := fs.String("name", "", "Supplier display name")
		businessNumber := fs.String("business-number", "", "Business registration number")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{
			Name:           *name,
			BusinessNumber: *businessNumber,
		})
		if err != nil {
			printInputError("add supplier", err)
			return 2
		}
		fmt.Printf("created supplier #%d %s\n", supplier.ID, supplier.Name)
		return 0
	case "deactivate":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "suppliers deactivate requires a supplier id")
			return 2
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid supplier id %q\n", args[1])
			return 2
		}
		if _, err := models.ToggleActiveSupplier(ctx, id, false); err != nil {
			fmt.Fprintf(os.Stderr, "deactivate supplier: %v\n", err)
			return 1
		}
		fmt.Printf("deactivated supplier #%d\n", id)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown suppliers subcommand %q\n", args[0])
		return 2
	}
}
