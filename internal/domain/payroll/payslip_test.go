package payroll

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPayslipNumberFormat(t *testing.T) {
	number := PayslipNumber("ACME", 7, day(2026, 8, 17))
	require.Equal(t, "ACME-2026-0007-W34", number)

	// ISO year can differ from the calendar year at the boundary.
	number = PayslipNumber("ACME", 1234, day(2024, 12, 30))
	require.Equal(t, "ACME-2025-1234-W01", number)
}

func TestRenderDeterministic(t *testing.T) {
	store := newFakeStore()
	id := seedWeek(store, StatusApproved)
	data, err := store.PayslipData(context.Background(), id)
	require.NoError(t, err)

	renderer := PDFRenderer{}
	first, err := renderer.Render(data, "ACME-2026-0007-W34")
	require.NoError(t, err)
	second, err := renderer.Render(data, "ACME-2026-0007-W34")
	require.NoError(t, err)
	require.True(t, bytes.Equal(first, second), "two renders of the same data must be byte-identical")
	require.True(t, bytes.HasPrefix(first, []byte("%PDF")), "output must be a PDF document")
}

func TestGeneratePayslipOnce(t *testing.T) {
	store := newFakeStore()
	id := seedWeek(store, StatusApproved)
	svc := newTestService(t, store)

	path, err := svc.GeneratePayslip(context.Background(), id)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.True(t, store.weeks[id].PayslipGenerated)

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	// Second call is a skip: same path back, document untouched.
	again, err := svc.GeneratePayslip(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, path, again)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.Equal(first, second))
}

func TestGeneratePayslipNotReady(t *testing.T) {
	store := newFakeStore()
	id := seedWeek(store, StatusPending)
	svc := newTestService(t, store)

	_, err := svc.GeneratePayslip(context.Background(), id)
	require.ErrorIs(t, err, ErrNotReady)
	require.False(t, store.weeks[id].PayslipGenerated)

	held := seedWeek(store, StatusOnHold)
	_, err = svc.GeneratePayslip(context.Background(), held)
	require.ErrorIs(t, err, ErrNotReady)
}

func TestGenerateBatchCounts(t *testing.T) {
	store := newFakeStore()
	approved := seedWeek(store, StatusApproved)
	seedWeek(store, StatusPending)
	paid := seedWeek(store, StatusPaid)
	store.weeks[paid].EmployeeID = 8
	svc := newTestService(t, store)

	count, err := svc.GenerateBatch(context.Background(), monday)
	require.NoError(t, err)
	require.Equal(t, 2, count, "approved-or-later, ungenerated records only")
	require.True(t, store.weeks[approved].PayslipGenerated)
	require.True(t, store.weeks[paid].PayslipGenerated)

	// Re-running generates nothing new.
	count, err = svc.GenerateBatch(context.Background(), monday)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestOpenPayslip(t *testing.T) {
	store := newFakeStore()
	id := seedWeek(store, StatusApproved)
	svc := newTestService(t, store)

	_, _, err := svc.OpenPayslip(context.Background(), id)
	require.ErrorIs(t, err, ErrPayslipNotGenerated)

	_, err = svc.GeneratePayslip(context.Background(), id)
	require.NoError(t, err)

	content, name, err := svc.OpenPayslip(context.Background(), id)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, []byte("%PDF")))
	require.Equal(t, "ACME-2026-0007-W34.pdf", name)
}
