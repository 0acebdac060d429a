package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bus_pass/internal/events"
	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/internal/transport"
	"github.com/Skotchmaster/bus_pass/pkg/hash"
)

func ptr[T any](v T) *T { return &v }

func newTestAccountService(t *testing.T) (*AccountService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return &AccountService{Store: newStore(t), Events: pub, BcryptCost: testCost}, pub
}

func TestAccountService_CreateManual(t *testing.T) {
	t.Parallel()

	svc, pub := newTestAccountService(t)
	ctx := context.Background()

	acc, err := svc.CreateManual(ctx, transport.AccountRequest{
		Email:      "s@x.com",
		Name:       "Sita",
		Age:        transport.FlexInt{Value: ptr(19)},
		Course:     "",
		RollNumber: "R7",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, acc.Role)
	assert.Nil(t, acc.Course)
	assert.Equal(t, 19, *acc.Age)
	assert.True(t, hash.CheckPassword(models.Deref(acc.PasswordHash), "R7"))
	assert.Equal(t, []string{events.AccountCreated}, pub.types())

	_, err = svc.CreateManual(ctx, transport.AccountRequest{Name: "no email"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateManual(ctx, transport.AccountRequest{Email: "r@x.com", Role: "driver"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateManual(ctx, transport.AccountRequest{Email: "neg@x.com", Age: transport.FlexInt{Value: ptr(-1)}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateManual(ctx, transport.AccountRequest{Email: "other@x.com", RollNumber: "R7"})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"rollNumber"}, ce.Fields)
}

func TestAccountService_Update(t *testing.T) {
	t.Parallel()

	svc, pub := newTestAccountService(t)
	ctx := context.Background()

	a, err := svc.CreateManual(ctx, transport.AccountRequest{Email: "a@x.com", Aadhar: "111", Depo: "North"})
	require.NoError(t, err)
	b, err := svc.CreateManual(ctx, transport.AccountRequest{Email: "b@x.com", Aadhar: "222"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, a.ID, transport.PatchAccountRequest{
		Name: ptr("Anil"),
		Depo: ptr(""),
		Age:  &transport.FlexInt{Value: ptr(20)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Anil", models.Deref(updated.Name))
	assert.Nil(t, updated.Depo)
	assert.Equal(t, "111", models.Deref(updated.Aadhar))
	assert.Equal(t, 20, *updated.Age)

	_, err = svc.Update(ctx, a.ID, transport.PatchAccountRequest{Aadhar: ptr("222"), Email: ptr("b@x.com")})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.ElementsMatch(t, []string{"email", "aadhar"}, ce.Fields)

	_, err = svc.Update(ctx, b.ID, transport.PatchAccountRequest{Email: ptr("  ")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, "missing", transport.PatchAccountRequest{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Contains(t, pub.types(), events.AccountUpdated)
}

func TestAccountService_Delete(t *testing.T) {
	t.Parallel()

	svc, pub := newTestAccountService(t)
	ctx := context.Background()

	acc, err := svc.CreateManual(ctx, transport.AccountRequest{Email: "a@x.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, acc.ID))
	assert.ErrorIs(t, svc.Delete(ctx, acc.ID), ErrNotFound)

	_, err = svc.Get(ctx, acc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{events.AccountCreated, events.AccountDeleted}, pub.types())
}

func TestAccountService_ResetPassword(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAccountService(t)
	ctx := context.Background()

	_, err := svc.CreateManual(ctx, transport.AccountRequest{Email: "a@x.com", Password: "custom", RollNumber: "R1"})
	require.NoError(t, err)

	acc, err := svc.ResetPassword(ctx, "A@x.com", "R1")
	require.NoError(t, err)
	assert.True(t, hash.CheckPassword(models.Deref(acc.PasswordHash), "R1"))
	assert.False(t, hash.CheckPassword(models.Deref(acc.PasswordHash), "custom"))

	_, err = svc.ResetPassword(ctx, "ghost@x.com", "R1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ResetPassword(ctx, "a@x.com", "")
	assert.ErrorIs(t, err, ErrValidation)
}
