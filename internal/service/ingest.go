package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/bus_pass/internal/events"
	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/internal/repo"
	"github.com/Skotchmaster/bus_pass/internal/transport"
	"github.com/Skotchmaster/bus_pass/pkg/hash"
	"github.com/Skotchmaster/bus_pass/pkg/logging"
)

const placeholderEmailDomain = "@student.com"

// Candidate is one normalized row of an ingest batch.
type Candidate struct {
	Email      string
	Password   string
	Role       string
	Name       string
	MobileNo   string
	Age        *int
	Gender     string
	Aadhar     string
	Course     string
	College    string
	Depo       string
	RollNumber string
}

func NewCandidate(req transport.AccountRequest) Candidate {
	c := Candidate{
		Email:      normalizeEmail(req.Email),
		Password:   req.Password,
		Role:       strings.ToLower(strings.TrimSpace(req.Role)),
		Name:       strings.TrimSpace(req.Name),
		MobileNo:   strings.TrimSpace(req.MobileNo),
		Age:        req.Age.Value,
		Gender:     strings.TrimSpace(req.Gender),
		Aadhar:     strings.TrimSpace(req.Aadhar),
		Course:     strings.TrimSpace(req.Course),
		College:    strings.TrimSpace(req.College),
		Depo:       strings.TrimSpace(req.Depo),
		RollNumber: strings.TrimSpace(req.RollNumber),
	}
	if c.Role == "" {
		c.Role = models.RoleStudent
	}
	if c.Age != nil && *c.Age < 0 {
		c.Age = nil
	}
	return c
}

// LoginSecret is the password to hash for c: the given one, else the roll
// number. Empty means the account starts without a password.
func (c Candidate) LoginSecret() string {
	if c.Password != "" {
		return c.Password
	}
	return c.RollNumber
}

// Account converts c into a row. A missing email is synthesized from the
// roll number.
func (c Candidate) Account() models.Account {
	email := c.Email
	if email == "" && c.RollNumber != "" {
		email = strings.ToLower(c.RollNumber) + placeholderEmailDomain
	}
	role := c.Role
	if !validRole(role) {
		role = models.RoleStudent
	}
	return models.Account{
		Email:      email,
		Role:       role,
		Name:       models.Str(c.Name),
		MobileNo:   models.Str(c.MobileNo),
		Age:        c.Age,
		Gender:     models.Str(c.Gender),
		Aadhar:     models.Str(c.Aadhar),
		Course:     models.Str(c.Course),
		College:    models.Str(c.College),
		Depo:       models.Str(c.Depo),
		RollNumber: models.Str(c.RollNumber),
	}
}

type IngestResult struct {
	Count   int64
	Skipped int
}

type IngestService struct {
	Store      AccountStore
	Events     events.Publisher
	BcryptCost int
}

// Ingest persists the candidates that collide with nothing already stored.
// Rows with neither email nor roll number cannot get an email and are
// skipped. Duplicates inside the batch itself are left to the store, which
// drops them at insert time.
func (s *IngestService) Ingest(ctx context.Context, batch []Candidate) (IngestResult, error) {
	l := logging.FromContext(ctx).With("svc", "ingest")

	usable := make([]Candidate, 0, len(batch))
	res := IngestResult{}
	for _, c := range batch {
		if c.Email == "" && c.RollNumber == "" {
			res.Skipped++
			continue
		}
		usable = append(usable, c)
	}
	if len(usable) == 0 {
		l.Info("ingest_nothing_to_do", "batch", len(batch), "skipped", res.Skipped)
		return res, nil
	}

	existing, err := s.Store.FindByAnyKey(ctx, CollectKeys(usable))
	if err != nil {
		return IngestResult{}, fmt.Errorf("find existing accounts: %w", err)
	}

	fresh := FilterNew(usable, existing)
	accounts := make([]models.Account, 0, len(fresh))
	for _, c := range fresh {
		acc := c.Account()
		if secret := c.LoginSecret(); secret != "" {
			h, err := hash.HashPassword(secret, s.BcryptCost)
			if err != nil {
				return IngestResult{}, err
			}
			acc.PasswordHash = &h
		}
		accounts = append(accounts, acc)
	}

	n, err := s.Store.CreateManySkipDuplicates(ctx, accounts)
	if err != nil {
		return IngestResult{}, fmt.Errorf("insert accounts: %w", err)
	}
	res.Count = n

	l.Info("ingest_done", "batch", len(batch), "new", len(fresh), "inserted", n, "skipped", res.Skipped)
	if n > 0 {
		publish(ctx, s.Events, "import", events.Event{Type: events.AccountsImported, Count: n, Skipped: res.Skipped})
	}
	return res, nil
}

// CollectKeys gathers the distinct non-empty unique values of the batch.
func CollectKeys(batch []Candidate) repo.KeySet {
	var keys repo.KeySet
	seen := map[string]map[string]bool{}
	add := func(kind, v string, dst *[]string) {
		if v == "" {
			return
		}
		if seen[kind] == nil {
			seen[kind] = map[string]bool{}
		}
		if seen[kind][v] {
			return
		}
		seen[kind][v] = true
		*dst = append(*dst, v)
	}
	for _, c := range batch {
		add("email", c.Email, &keys.Emails)
		add("aadhar", c.Aadhar, &keys.Aadhars)
		add("mobile", c.MobileNo, &keys.MobileNos)
		add("roll", c.RollNumber, &keys.RollNumbers)
	}
	return keys
}

// FilterNew keeps the candidates none of whose non-empty keys appear in
// existing. Empty values never collide.
func FilterNew(batch []Candidate, existing []models.Account) []Candidate {
	emails := map[string]bool{}
	aadhars := map[string]bool{}
	mobiles := map[string]bool{}
	rolls := map[string]bool{}
	for _, acc := range existing {
		emails[normalizeEmail(acc.Email)] = true
		if v := models.Deref(acc.Aadhar); v != "" {
			aadhars[v] = true
		}
		if v := models.Deref(acc.MobileNo); v != "" {
			mobiles[v] = true
		}
		if v := models.Deref(acc.RollNumber); v != "" {
			rolls[v] = true
		}
	}

	taken := func(set map[string]bool, v string) bool { return v != "" && set[v] }

	out := make([]Candidate, 0, len(batch))
	for _, c := range batch {
		if taken(emails, c.Email) || taken(aadhars, c.Aadhar) || taken(mobiles, c.MobileNo) || taken(rolls, c.RollNumber) {
			continue
		}
		out = append(out, c)
	}
	return out
}
