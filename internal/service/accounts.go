package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bus_pass/internal/events"
	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/internal/transport"
	"github.com/Skotchmaster/bus_pass/pkg/hash"
	"github.com/Skotchmaster/bus_pass/pkg/logging"
)

type AccountService struct {
	Store      AccountStore
	Events     events.Publisher
	BcryptCost int
}

func (s *AccountService) List(ctx context.Context, offset, limit int) (int64, []models.Account, error) {
	total, items, err := s.Store.List(ctx, offset, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("list accounts: %w", err)
	}
	return total, items, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	acc, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "get account")
	}
	return acc, nil
}

func (s *AccountService) CountByRole(ctx context.Context, role string) (int64, error) {
	n, err := s.Store.CountByRole(ctx, role)
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

// CreateManual is the admin's single add. Blank optional fields become NULL
// and the password falls back to the roll number, like an import row.
func (s *AccountService) CreateManual(ctx context.Context, req transport.AccountRequest) (*models.Account, error) {
	c := NewCandidate(req)
	if c.Email == "" {
		return nil, fmt.Errorf("email is required: %w", ErrValidation)
	}
	if req.Role != "" && !validRole(c.Role) {
		return nil, fmt.Errorf("unknown role %q: %w", req.Role, ErrValidation)
	}
	if req.Age.Value != nil && *req.Age.Value < 0 {
		return nil, fmt.Errorf("age cannot be negative: %w", ErrValidation)
	}

	acc := c.Account()
	if err := createAccount(ctx, s.Store, &acc, c.LoginSecret(), s.BcryptCost); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("account_created", "account_id", acc.ID, "role", acc.Role)
	publish(ctx, s.Events, acc.ID, events.Event{Type: events.AccountCreated, AccountID: acc.ID})
	return &acc, nil
}

// Update is the profile edit. Email can change but never be cleared.
func (s *AccountService) Update(ctx context.Context, id string, req transport.PatchAccountRequest) (*models.Account, error) {
	current, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "get account")
	}

	fields := map[string]any{}
	probe := *current

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			return nil, fmt.Errorf("email cannot be empty: %w", ErrValidation)
		}
		fields["email"] = email
		probe.Email = email
	}
	setOptional := func(column string, in *string, dst **string) {
		if in == nil {
			return
		}
		v := strings.TrimSpace(*in)
		*dst = models.Str(v)
		if v == "" {
			fields[column] = nil
		} else {
			fields[column] = v
		}
	}
	setOptional("name", req.Name, &probe.Name)
	setOptional("mobile_no", req.MobileNo, &probe.MobileNo)
	setOptional("gender", req.Gender, &probe.Gender)
	setOptional("aadhar", req.Aadhar, &probe.Aadhar)
	setOptional("course", req.Course, &probe.Course)
	setOptional("college", req.College, &probe.College)
	setOptional("depo", req.Depo, &probe.Depo)
	setOptional("roll_number", req.RollNumber, &probe.RollNumber)

	if req.Age != nil {
		if req.Age.Value == nil {
			fields["age"] = nil
		} else {
			if *req.Age.Value < 0 {
				return nil, fmt.Errorf("age cannot be negative: %w", ErrValidation)
			}
			fields["age"] = *req.Age.Value
		}
	}

	if req.Password != nil {
		if *req.Password == "" {
			return nil, fmt.Errorf("password cannot be empty: %w", ErrValidation)
		}
		h, err := hash.HashPassword(*req.Password, s.BcryptCost)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = h
	}

	conflicts, err := s.Store.FindConflicts(ctx, &probe, id)
	if err != nil {
		return nil, fmt.Errorf("check conflicts: %w", err)
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{Fields: conflicts}
	}

	updated, err := s.Store.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{}
		}
		return nil, notFoundOr(err, "update account")
	}

	publish(ctx, s.Events, id, events.Event{Type: events.AccountUpdated, AccountID: id})
	return updated, nil
}

func (s *AccountService) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return notFoundOr(err, "delete account")
	}
	publish(ctx, s.Events, id, events.Event{Type: events.AccountDeleted, AccountID: id})
	return nil
}

// ResetPassword sets the password of the account with email back to its
// roll number.
func (s *AccountService) ResetPassword(ctx context.Context, email, rollNumber string) (*models.Account, error) {
	email = normalizeEmail(email)
	rollNumber = strings.TrimSpace(rollNumber)
	if email == "" || rollNumber == "" {
		return nil, fmt.Errorf("email and roll number are required: %w", ErrValidation)
	}

	acc, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFoundOr(err, "find account")
	}

	h, err := hash.HashPassword(rollNumber, s.BcryptCost)
	if err != nil {
		return nil, err
	}
	updated, err := s.Store.Update(ctx, acc.ID, map[string]any{"password_hash": h})
	if err != nil {
		return nil, notFoundOr(err, "update password")
	}
	return updated, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
