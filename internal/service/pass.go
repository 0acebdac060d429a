package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/bus_pass/internal/events"
	"github.com/Skotchmaster/bus_pass/internal/qr"
	"github.com/Skotchmaster/bus_pass/pkg/logging"
	"github.com/Skotchmaster/bus_pass/pkg/tokens"
)

const DefaultPassWindow = 30 * 24 * time.Hour

type PassService struct {
	Store  AccountStore
	Tokens *tokens.Issuer
	Events events.Publisher
	Window time.Duration
	QRSize int
}

type PassResult struct {
	Token      string
	QRImageURL string
	ExpiresAt  time.Time
}

// Issue signs a fresh pass for userID. Every call starts a new window; older
// passes are simply superseded on the client.
func (s *PassService) Issue(ctx context.Context, userID string) (*PassResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("userId is required: %w", ErrValidation)
	}
	if _, err := s.Store.FindByID(ctx, userID); err != nil {
		return nil, notFoundOr(err, "find pass holder")
	}

	window := s.Window
	if window <= 0 {
		window = DefaultPassWindow
	}

	tok, exp, err := s.Tokens.IssuePass(userID, window)
	if err != nil {
		return nil, fmt.Errorf("issue pass: %w", err)
	}
	img, err := qr.DataURL(tok, s.QRSize)
	if err != nil {
		return nil, fmt.Errorf("render pass: %w", err)
	}

	logging.FromContext(ctx).Info("pass_issued", "account_id", userID, "expires_at", exp)
	publish(ctx, s.Events, userID, events.Event{Type: events.PassIssued, AccountID: userID})

	return &PassResult{Token: tok, QRImageURL: img, ExpiresAt: exp}, nil
}
