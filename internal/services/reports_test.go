package services

import (
	"context"
	"rewear/internal/apperr"
	"rewear/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	owner := f.user(t, "o@x.io", 0)
	a := f.user(t, "a@x.io", 0)
	it := f.item(t, owner.ID, "Tops", "Good", models.ListingSwap, models.ItemApproved)

	_, err := f.svc.Reports.Create(ctx, actorOf(owner), it.ID, "spam", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.Reports.Create(ctx, actorOf(a), it.ID, " ", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.Reports.Create(ctx, actorOf(a), 999, "spam", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	rep, err := f.svc.Reports.Create(ctx, actorOf(a), it.ID, "counterfeit", "logo looks off")
	require.NoError(t, err)
	assert.Equal(t, models.ReportPending, rep.Status)

	_, err = f.svc.Reports.List(ctx, actorOf(a), "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	list, err := f.svc.Reports.List(ctx, actorOf(admin), models.ReportPending)
	require.NoError(t, err)
	require.Len(t, list, 1)

	resolved, err := f.svc.Reports.Resolve(ctx, actorOf(admin), rep.ID, models.ReportResolved)
	require.NoError(t, err)
	assert.Equal(t, models.ReportResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedByID)
	assert.Equal(t, admin.ID, *resolved.ResolvedByID)
	assert.NotNil(t, resolved.ResolvedAt)

	_, err = f.svc.Reports.Resolve(ctx, actorOf(admin), rep.ID, models.ReportDismissed)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = f.svc.Reports.Resolve(ctx, actorOf(admin), 999, models.ReportDismissed)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Reports.Resolve(ctx, actorOf(admin), rep.ID, "ignored")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
