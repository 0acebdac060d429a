package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/internal/testdb"
)

func student(email, aadhar, mobile, roll string) models.Account {
	return models.Account{
		Email:      email,
		Role:       models.RoleStudent,
		Aadhar:     models.Str(aadhar),
		MobileNo:   models.Str(mobile),
		RollNumber: models.Str(roll),
	}
}

func TestCreate_EmailIsUnique(t *testing.T) {
	t.Parallel()

	r := New(testdb.New(t))
	ctx := context.Background()

	first := student("a@x.com", "", "", "")
	require.NoError(t, r.Create(ctx, &first))
	require.NotEmpty(t, first.ID)

	second := student("a@x.com", "", "", "")
	require.Error(t, r.Create(ctx, &second))

	_, items, err := r.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCreate_EmptyOptionalKeysNeverCollide(t *testing.T) {
	t.Parallel()

	r := New(testdb.New(t))
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		acc := student(email, "", "", "")
		require.NoError(t, r.Create(ctx, &acc))
	}
	total, _, err := r.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestFindByAnyKey(t *testing.T) {
	t.Parallel()

	r := New(testdb.New(t))
	ctx := context.Background()

	seed := []models.Account{
		student("a@x.com", "111", "900", "R1"),
		student("b@x.com", "222", "901", "R2"),
		student("c@x.com", "333", "902", "R3"),
	}
	for i := range seed {
		require.NoError(t, r.Create(ctx, &seed[i]))
	}

	found, err := r.FindByAnyKey(ctx, KeySet{})
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = r.FindByAnyKey(ctx, KeySet{
		Emails:      []string{"a@x.com", "nobody@x.com"},
		MobileNos:   []string{"902"},
		RollNumbers: []string{"R9"},
	})
	require.NoError(t, err)

	emails := make([]string, 0, len(found))
	for _, acc := range found {
		emails = append(emails, acc.Email)
	}
	assert.ElementsMatch(t, []string{"a@x.com", "c@x.com"}, emails)
}

func TestCreateManySkipDuplicates(t *testing.T) {
	t.Parallel()

	r := New(testdb.New(t))
	ctx := context.Background()

	n, err := r.CreateManySkipDuplicates(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	batch := func() []models.Account {
		return []models.Account{
			student("a@x.com", "111", "", ""),
			student("b@x.com", "111", "", ""),
			student("c@x.com", "", "", "R3"),
		}
	}

	n, err = r.CreateManySkipDuplicates(ctx, batch())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = r.CreateManySkipDuplicates(ctx, batch())
	require.NoError(t, err)
	assert.Zero(t, n)

	acc, err := r.FindByEmail(ctx, "A@x.com ")
	require.NoError(t, err)
	assert.Equal(t, "111", models.Deref(acc.Aadhar))

	_, err = r.FindByEmail(ctx, "b@x.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindConflicts(t *testing.T) {
	t.Parallel()

	r := New(testdb.New(t))
	ctx := context.Background()

	a := student("a@x.com", "111", "900", "R1")
	b := student("b@x.com", "222", "901", "R2")
	require.NoError(t, r.Create(ctx, &a))
	require.NoError(t, r.Create(ctx, &b))

	probe := student("a@x.com", "222", "999", "")
	fields, err := r.FindConflicts(ctx, &probe, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"email", "aadhar"}, fields)

	self := student("a@x.com", "111", "900", "R1")
	fields, err = r.FindConflicts(ctx, &self, a.ID)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestUpdateAndDelete(t *testing.T) {
	t.Parallel()

	r := New(testdb.New(t))
	ctx := context.Background()

	acc := student("a@x.com", "111", "", "R1")
	require.NoError(t, r.Create(ctx, &acc))

	updated, err := r.Update(ctx, acc.ID, map[string]any{"name": "Asha", "aadhar": nil})
	require.NoError(t, err)
	assert.Equal(t, "Asha", models.Deref(updated.Name))
	assert.Nil(t, updated.Aadhar)

	_, err = r.Update(ctx, "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, r.Delete(ctx, acc.ID))
	assert.ErrorIs(t, r.Delete(ctx, acc.ID), gorm.ErrRecordNotFound)
}

func TestList_Pagination(t *testing.T) {
	t.Parallel()

	r := New(testdb.New(t))
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		acc := student(email, "", "", "")
		require.NoError(t, r.Create(ctx, &acc))
	}

	total, items, err := r.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 1)

	n, err := r.CountByRole(ctx, models.RoleStudent)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
