package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolvedDraft(t *testing.T) (*Draft, *Engine) {
	t.Helper()
	engine := NewEngine(newLookupStrategy())
	d := NewDraft(uuid.New(), DraftSourceManual, "", electricianSnapshot(t), gst(), Extraction{
		Items: []ExtractedItem{{ItemRef: "travel", Quantity: dec("1")}, {ItemRef: "gizmo", Quantity: dec("1")}},
	})
	require.Equal(t, DraftStateExtracted, d.State)
	require.NoError(t, d.Resolve(context.Background(), engine))
	return d, engine
}

func TestDraft_Lifecycle(t *testing.T) {
	d, _ := newResolvedDraft(t)
	assert.Equal(t, DraftStateResolved, d.State)
	require.NotNil(t, d.Priced)

	assert.ErrorIs(t, d.CheckConfirmable(false), ErrInvalidDraftMove, "resolved drafts need review first")

	require.NoError(t, d.Accept())
	assert.Equal(t, DraftStateReviewedAccepted, d.State)
	require.NoError(t, d.CheckConfirmable(false))
	assert.ErrorIs(t, d.CheckConfirmable(true), ErrUnresolvedItems)

	invoiceID := uuid.New()
	require.NoError(t, d.MarkConfirmed(invoiceID, "2026-0001"))
	assert.True(t, d.IsFrozen())
	assert.Equal(t, "2026-0001", d.InvoiceNumber)
	assert.Equal(t, invoiceID, *d.InvoiceID)
}

func TestDraft_EditReResolvesAgainstSameSnapshot(t *testing.T) {
	d, engine := newResolvedDraft(t)
	snapshotID := d.Snapshot.ID

	err := d.Edit(context.Background(), engine, Extraction{
		Items: []ExtractedItem{{ItemRef: "travel", Quantity: dec("2")}, {ItemRef: "30-amp breaker", Quantity: dec("1")}},
	})
	require.NoError(t, err)

	assert.Equal(t, DraftStateReviewedEdited, d.State)
	assert.Equal(t, 1, d.Edits)
	assert.Equal(t, snapshotID, d.Priced.SnapshotID)
	assert.True(t, d.Priced.Subtotal.Equal(dec("145")))
	assert.True(t, d.Priced.FullyResolved())
	require.NoError(t, d.CheckConfirmable(true))

	require.NoError(t, d.Accept())
	require.NoError(t, d.Edit(context.Background(), engine, d.Extraction))
	assert.Equal(t, 2, d.Edits)
}

func TestDraft_ConfirmedIsFrozen(t *testing.T) {
	d, engine := newResolvedDraft(t)
	require.NoError(t, d.Accept())
	require.NoError(t, d.MarkConfirmed(uuid.New(), "2026-0002"))

	assert.ErrorIs(t, d.Accept(), ErrDraftFrozen)
	assert.ErrorIs(t, d.Edit(context.Background(), engine, Extraction{}), ErrDraftFrozen)
	assert.ErrorIs(t, d.Resolve(context.Background(), engine), ErrDraftFrozen)
	assert.ErrorIs(t, d.AssignClient(uuid.New()), ErrDraftFrozen)
	assert.ErrorIs(t, d.MarkConfirmed(uuid.New(), "2026-0003"), ErrDraftFrozen)
	assert.ErrorIs(t, d.CheckConfirmable(false), ErrDraftFrozen)
}

func TestDraft_NoPricedItems(t *testing.T) {
	engine := NewEngine(newLookupStrategy())
	d := NewDraft(uuid.New(), DraftSourceManual, "", electricianSnapshot(t), gst(), Extraction{
		Items: []ExtractedItem{{ItemRef: "gizmo", Quantity: dec("1")}},
	})
	require.NoError(t, d.Resolve(context.Background(), engine))
	require.NoError(t, d.Accept())
	assert.ErrorIs(t, d.CheckConfirmable(false), ErrNoPricedItems)
}

func TestDraftState_Transitions(t *testing.T) {
	tests := []struct {
		from, to DraftState
		ok       bool
	}{
		{DraftStateExtracted, DraftStateResolved, true},
		{DraftStateExtracted, DraftStateConfirmed, false},
		{DraftStateResolved, DraftStateReviewedAccepted, true},
		{DraftStateResolved, DraftStateReviewedEdited, true},
		{DraftStateResolved, DraftStateConfirmed, false},
		{DraftStateReviewedAccepted, DraftStateConfirmed, true},
		{DraftStateReviewedEdited, DraftStateConfirmed, true},
		{DraftStateReviewedEdited, DraftStateResolved, true},
		{DraftStateConfirmed, DraftStateResolved, false},
		{DraftStateConfirmed, DraftStateReviewedEdited, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}
