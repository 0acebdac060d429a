package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/bus_pass/internal/events"
	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/internal/repo"
	"github.com/Skotchmaster/bus_pass/internal/testdb"
	"github.com/Skotchmaster/bus_pass/pkg/tokens"
)

const testCost = bcrypt.MinCost

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// brokenStore fails every read; used for the store-error paths.
type brokenStore struct {
	AccountStore
}

var errStoreDown = errors.New("connection refused")

func (brokenStore) FindByAnyKey(context.Context, repo.KeySet) ([]models.Account, error) {
	return nil, errStoreDown
}

func (brokenStore) FindByEmail(context.Context, string) (*models.Account, error) {
	return nil, errStoreDown
}

func newStore(t *testing.T) *repo.GormRepo {
	t.Helper()
	return repo.New(testdb.New(t))
}

func newIssuer(t *testing.T) *tokens.Issuer {
	t.Helper()
	iss, err := tokens.NewIssuer([]byte("test-jwt-secret"))
	require.NoError(t, err)
	return iss
}
