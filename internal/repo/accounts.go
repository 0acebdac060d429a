package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bus_pass/internal/models"
)

// KeySet holds the values of the unique columns a batch wants to write.
type KeySet struct {
	Emails      []string
	Aadhars     []string
	MobileNos   []string
	RollNumbers []string
}

func (k KeySet) Empty() bool {
	return len(k.Emails) == 0 && len(k.Aadhars) == 0 && len(k.MobileNos) == 0 && len(k.RollNumbers) == 0
}

func (k KeySet) conditions() []clause.Expression {
	var out []clause.Expression
	add := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		out = append(out, clause.IN{Column: clause.Column{Name: column}, Values: toAny(values)})
	}
	add("email", k.Emails)
	add("aadhar", k.Aadhars)
	add("mobile_no", k.MobileNos)
	add("roll_number", k.RollNumbers)
	return out
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&acc).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *GormRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&acc).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

// FindByAnyKey returns every account matching at least one value of keys in
// one round trip.
func (r *GormRepo) FindByAnyKey(ctx context.Context, keys KeySet) ([]models.Account, error) {
	if keys.Empty() {
		return nil, nil
	}

	var found []models.Account
	err := r.DB.WithContext(ctx).
		Select("id", "email", "aadhar", "mobile_no", "roll_number").
		Where(clause.Or(keys.conditions()...)).
		Find(&found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// FindConflicts names the unique columns of acc already taken by another
// account. excludeID skips the account being edited.
func (r *GormRepo) FindConflicts(ctx context.Context, acc *models.Account, excludeID string) ([]string, error) {
	keys := KeySet{}
	if acc.Email != "" {
		keys.Emails = []string{acc.Email}
	}
	if v := models.Deref(acc.Aadhar); v != "" {
		keys.Aadhars = []string{v}
	}
	if v := models.Deref(acc.MobileNo); v != "" {
		keys.MobileNos = []string{v}
	}
	if v := models.Deref(acc.RollNumber); v != "" {
		keys.RollNumbers = []string{v}
	}

	found, err := r.FindByAnyKey(ctx, keys)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var fields []string
	mark := func(field string, hit bool) {
		if hit && !seen[field] {
			seen[field] = true
			fields = append(fields, field)
		}
	}
	for _, other := range found {
		if other.ID == excludeID {
			continue
		}
		mark("email", acc.Email != "" && other.Email == acc.Email)
		mark("aadhar", sameValue(acc.Aadhar, other.Aadhar))
		mark("mobileNo", sameValue(acc.MobileNo, other.MobileNo))
		mark("rollNumber", sameValue(acc.RollNumber, other.RollNumber))
	}
	return fields, nil
}

func sameValue(a, b *string) bool {
	return a != nil && b != nil && *a != "" && *a == *b
}

func (r *GormRepo) Create(ctx context.Context, acc *models.Account) error {
	return r.DB.WithContext(ctx).Create(acc).Error
}

// CreateManySkipDuplicates inserts in batches with ON CONFLICT DO NOTHING and
// reports how many rows were actually written.
func (r *GormRepo) CreateManySkipDuplicates(ctx context.Context, accounts []models.Account) (int64, error) {
	if len(accounts) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&accounts, insertBatchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Update applies column updates by id and returns the fresh row.
func (r *GormRepo) Update(ctx context.Context, id string, fields map[string]any) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&acc).Error; err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := r.DB.WithContext(ctx).Model(&acc).Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

func (r *GormRepo) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Account{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns accounts oldest first. limit <= 0 returns everything.
func (r *GormRepo) List(ctx context.Context, offset, limit int) (int64, []models.Account, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	q := r.DB.WithContext(ctx).Model(&models.Account{}).Order("created_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	items := make([]models.Account, 0)
	if err := q.Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Account{}).Where("role = ?", role).Count(&n).Error
	return n, err
}
