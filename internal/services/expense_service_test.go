package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
	"expenses/internal/ledger/memory"
)

type recordingPublisher struct {
	created []core.Record
	deleted []core.Record
	err     error
	closed  bool
}

func (p *recordingPublisher) PublishRecordCreated(_ context.Context, r core.Record) error {
	p.created = append(p.created, r)
	return p.err
}

func (p *recordingPublisher) PublishRecordDeleted(_ context.Context, r core.Record) error {
	p.deleted = append(p.deleted, r)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

type failingStore struct {
	*memory.Store
}

func (failingStore) FetchAll(context.Context) ([]core.Record, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) Ping(context.Context) error {
	return errors.New("disk on fire")
}

var july = core.NewMonth(2025, time.July)

func TestExpenseService_AddExpense(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub)

	rec, err := svc.AddExpense(ctx, core.Entry{Month: july, Category: core.Dining, Amount: core.FromUnits(500)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	require.Len(t, pub.created, 1)
	assert.Equal(t, rec.ID, pub.created[0].ID)

	records, err := svc.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, core.FromUnits(500), records[0].Amount)

	// The caller and the event see the stored creation time.
	assert.Equal(t, records[0], rec)
	assert.Equal(t, records[0].CreatedAt, pub.created[0].CreatedAt)
}

func TestExpenseService_AddExpenseRejectsInvalid(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub)

	_, err := svc.AddExpense(context.Background(), core.Entry{Month: july, Category: core.NonEssentials, Amount: core.FromUnits(10)})

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, core.ErrCommentRequired)
	assert.Empty(t, pub.created)
}

func TestExpenseService_PublishFailureDoesNotFail(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewExpenseService(memory.New(), pub)

	_, err := svc.AddExpense(context.Background(), core.Entry{Month: july, Category: core.Fuel, Amount: core.FromUnits(40)})
	require.NoError(t, err)

	_, err = svc.DeleteLast(context.Background())
	require.NoError(t, err)
	assert.Len(t, pub.deleted, 1)
}

func TestExpenseService_DeleteLast(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub)

	_, err := svc.DeleteLast(ctx)
	require.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, pub.deleted)

	_, err = svc.AddExpense(ctx, core.Entry{Month: july, Category: core.Dining, Amount: core.FromUnits(500)})
	require.NoError(t, err)
	second, err := svc.AddExpense(ctx, core.Entry{Month: core.NewMonth(2025, time.June), Category: core.EMI, Amount: core.FromUnits(1000)})
	require.NoError(t, err)

	deleted, err := svc.DeleteLast(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, deleted.ID)
	require.Len(t, pub.deleted, 1)

	records, err := svc.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, core.Dining, records[0].Category)
}

func TestExpenseService_Dashboard(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(memory.New(), nil)

	for _, e := range []core.Entry{
		{Month: core.NewMonth(2025, time.June), Category: core.Dining, Amount: core.FromUnits(300)},
		{Month: july, Category: core.Dining, Amount: core.FromUnits(500)},
		{Month: july, Category: core.EMI, Amount: core.FromUnits(1000)},
	} {
		_, err := svc.AddExpense(ctx, e)
		require.NoError(t, err)
	}

	d, err := svc.Dashboard(ctx, july)
	require.NoError(t, err)
	assert.True(t, d.HasMonthData)
	assert.Equal(t, core.FromUnits(1500), d.Total)
	assert.Equal(t, core.FromUnits(300), d.PreviousTotal)
	assert.Equal(t, core.Increased, d.Trend)
	require.NotNil(t, d.Comparison)
	assert.Equal(t, july, d.Comparison.Current)

	_, err = svc.Dashboard(ctx, core.Month{Year: 2025, Month: 13})
	require.ErrorIs(t, err, core.ErrMalformedLabel)

	c, ok, err := svc.Comparison(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, c.Deltas, 2)
}

func TestExpenseService_StoreFailure(t *testing.T) {
	svc := NewExpenseService(failingStore{memory.New()}, nil)

	_, err := svc.Dashboard(context.Background(), july)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch expenses")
	assert.Error(t, svc.Ping(context.Background()))
}

func TestExpenseService_Close(t *testing.T) {
	t.Run("memory store and nil publisher", func(t *testing.T) {
		svc := NewExpenseService(memory.New(), nil)
		require.NoError(t, svc.Close())
		require.NoError(t, svc.Ping(context.Background()))
	})

	t.Run("closes publisher", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := NewExpenseService(memory.New(), pub)
		require.NoError(t, svc.Close())
		assert.True(t, pub.closed)
	})
}
