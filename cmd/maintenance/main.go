package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"commitment_notifier/internal/app"
	"commitment_notifier/internal/infra/config"
	idb "commitment_notifier/internal/infra/database"
	"commitment_notifier/internal/infra/httpapi"
	"commitment_notifier/internal/infra/logger"
)

const usage = `usage: maintenance <command> [--confirm]

commands:
  diagnose              report commitments without company, payments without commitment
                        and paid commitments without payments
  cleanup-orphans       mark commitments whose company no longer exists as orphaned
  cleanup-payments      delete payments whose commitment no longer exists
  fix-paid              reset paid commitments without payments to pending
  issue-token <subject> print an API bearer token for subject

Without --confirm the cleanup commands only report what they would change.`

// Maintenance is the set of repairs the CLI can run.
type Maintenance interface {
	DiagnoseOrphans(ctx context.Context) (*app.OrphanReport, error)
	CleanupOrphanedCommitments(ctx context.Context, confirm bool) (int64, error)
	CleanupOrphanedPayments(ctx context.Context, confirm bool) (int64, error)
	FixPaidWithoutPayment(ctx context.Context, confirm bool) (int64, error)
}

type options struct {
	command string
	args    []string
	confirm bool
}

func parseArgs(args []string) (options, error) {
	var opts options
	for _, a := range args {
		switch {
		case a == "--confirm":
			opts.confirm = true
		case opts.command == "":
			opts.command = a
		default:
			opts.args = append(opts.args, a)
		}
	}
	if opts.command == "" {
		return opts, errors.New("missing command")
	}
	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cfg, err := config.LoadBase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg)

	if opts.command == "issue-token" {
		if err := issueToken(os.Stdout, cfg.JWTSecret, opts.args, time.Now()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	svc := app.NewMaintenanceService(
		idb.NewPostgresCommitmentRepository(db),
		idb.NewPostgresPaymentRepository(db),
		idb.NewPostgresCompanyRepository(db),
		logger.Component("maintenance"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := execute(ctx, os.Stdout, svc, opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", opts.command, err)
		db.Close()
		os.Exit(1)
	}
}

func issueToken(out io.Writer, secret string, args []string, now time.Time) error {
	if len(args) != 1 {
		return errors.New("usage: maintenance issue-token <subject>")
	}
	tok, err := httpapi.IssueToken(secret, args[0], httpapi.DefaultTokenTTL, now)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok)
	return nil
}

// execute runs one maintenance command. A dry run is not a failure.
func execute(ctx context.Context, out io.Writer, svc Maintenance, opts options) error {
	var repair func(context.Context, bool) (int64, error)
	var what string

	switch opts.command {
	case "diagnose":
		report, err := svc.DiagnoseOrphans(ctx)
		if err != nil {
			return err
		}
		printReport(out, report)
		return nil
	case "cleanup-orphans":
		repair, what = svc.CleanupOrphanedCommitments, "commitments without company marked as orphaned"
	case "cleanup-payments":
		repair, what = svc.CleanupOrphanedPayments, "payments without commitment deleted"
	case "fix-paid":
		repair, what = svc.FixPaidWithoutPayment, "paid commitments without payments reset to pending"
	default:
		return fmt.Errorf("unknown command %q\n\n%s", opts.command, usage)
	}

	n, err := repair(ctx, opts.confirm)
	switch {
	case errors.Is(err, app.ErrConfirmationRequired):
		fmt.Fprintf(out, "DRY RUN: %d %s. Re-run with --confirm to apply.\n", n, what)
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintf(out, "%d %s.\n", n, what)
	return nil
}

func printReport(out io.Writer, r *app.OrphanReport) {
	fmt.Fprintf(out, "Commitments without company: %d\n", len(r.CommitmentsWithoutCompany))
	for _, c := range r.CommitmentsWithoutCompany {
		fmt.Fprintf(out, "  #%d %s (company %d)\n", c.ID, c.Concept, c.CompanyID)
	}
	fmt.Fprintf(out, "Payments without commitment: %d\n", len(r.PaymentsWithoutCommitment))
	for _, p := range r.PaymentsWithoutCommitment {
		fmt.Fprintf(out, "  #%d %s (commitment %d)\n", p.ID, app.FormatCOP(p.Amount), p.CommitmentID)
	}
	fmt.Fprintf(out, "Paid commitments without payments: %d\n", len(r.PaidWithoutPayment))
	for _, c := range r.PaidWithoutPayment {
		fmt.Fprintf(out, "  #%d %s\n", c.ID, c.Concept)
	}
	if r.Empty() {
		fmt.Fprintln(out, "No inconsistencies found.")
	}
}
