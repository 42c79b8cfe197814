package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"commitment_notifier/internal/app"
	"commitment_notifier/internal/domain/commitment"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMaintenance struct {
	report    *app.OrphanReport
	confirmed []string
	err       error
}

func (f *fakeMaintenance) DiagnoseOrphans(context.Context) (*app.OrphanReport, error) {
	return f.report, f.err
}

func (f *fakeMaintenance) repair(name string, confirm bool) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if !confirm {
		return 2, app.ErrConfirmationRequired
	}
	f.confirmed = append(f.confirmed, name)
	return 2, nil
}

func (f *fakeMaintenance) CleanupOrphanedCommitments(_ context.Context, confirm bool) (int64, error) {
	return f.repair("commitments", confirm)
}

func (f *fakeMaintenance) CleanupOrphanedPayments(_ context.Context, confirm bool) (int64, error) {
	return f.repair("payments", confirm)
}

func (f *fakeMaintenance) FixPaidWithoutPayment(_ context.Context, confirm bool) (int64, error) {
	return f.repair("paid", confirm)
}

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"cleanup-orphans", "--confirm"})
	require.NoError(t, err)
	assert.Equal(t, "cleanup-orphans", opts.command)
	assert.True(t, opts.confirm)

	opts, err = parseArgs([]string{"--confirm", "issue-token", "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "issue-token", opts.command)
	assert.Equal(t, []string{"ana@example.com"}, opts.args)

	_, err = parseArgs(nil)
	assert.Error(t, err)
}

func TestExecute_Diagnose(t *testing.T) {
	svc := &fakeMaintenance{report: &app.OrphanReport{
		CommitmentsWithoutCompany: []*commitment.Commitment{{ID: 4, Concept: "IVA", CompanyID: 99}},
		PaymentsWithoutCommitment: []*commitment.Payment{{ID: 8, CommitmentID: 77, Amount: decimal.NewFromInt(250000)}},
	}}
	var out bytes.Buffer

	require.NoError(t, execute(context.Background(), &out, svc, options{command: "diagnose"}))
	assert.Contains(t, out.String(), "Commitments without company: 1")
	assert.Contains(t, out.String(), "#4 IVA (company 99)")
	assert.Contains(t, out.String(), "#8 $250.000 (commitment 77)")
	assert.Contains(t, out.String(), "Paid commitments without payments: 0")
	assert.NotContains(t, out.String(), "No inconsistencies")
}

func TestExecute_DryRunAndConfirm(t *testing.T) {
	svc := &fakeMaintenance{}
	var out bytes.Buffer

	require.NoError(t, execute(context.Background(), &out, svc, options{command: "cleanup-payments"}))
	assert.True(t, strings.HasPrefix(out.String(), "DRY RUN: 2 payments"))
	assert.Empty(t, svc.confirmed)

	out.Reset()
	require.NoError(t, execute(context.Background(), &out, svc, options{command: "fix-paid", confirm: true}))
	assert.Equal(t, "2 paid commitments without payments reset to pending.\n", out.String())
	assert.Equal(t, []string{"paid"}, svc.confirmed)
}

func TestExecute_Errors(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorContains(t, execute(context.Background(), &out, &fakeMaintenance{}, options{command: "vacuum"}), "unknown command")

	svc := &fakeMaintenance{err: errors.New("connection refused")}
	assert.ErrorContains(t, execute(context.Background(), &out, svc, options{command: "cleanup-orphans", confirm: true}), "connection refused")
}

func TestIssueToken(t *testing.T) {
	var out bytes.Buffer
	now := time.Now()

	require.NoError(t, issueToken(&out, "secret", []string{"ana@example.com"}, now))
	tok := strings.TrimSpace(out.String())

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", claims.Subject)

	assert.Error(t, issueToken(&out, "secret", nil, now))
}
