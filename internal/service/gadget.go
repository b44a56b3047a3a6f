package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/gadget-registry/internal/domain"
)

// codenameAttempts bounds retries when a generated codename is taken.
const codenameAttempts = 3

// ConfirmationCodeLength is the number of digits in a self-destruct code.
const ConfirmationCodeLength = 6

// GadgetView is a gadget as returned by List, with fields derived at read time.
type GadgetView struct {
	domain.Gadget
	// MissionSuccessProbability is recomputed on every read and never
	// stored. Two reads of the same gadget will usually differ.
	MissionSuccessProbability string
}

// GadgetService enforces the gadget lifecycle rules.
type GadgetService struct {
	gadgets     domain.GadgetRepository
	codenames   CodenameGenerator
	probability func() int
	confirm     func() (string, error)
	now         func() time.Time
}

// GadgetOption customizes a GadgetService.
type GadgetOption func(*GadgetService)

// WithCodenameGenerator replaces the random codename source.
func WithCodenameGenerator(g CodenameGenerator) GadgetOption {
	return func(s *GadgetService) { s.codenames = g }
}

// WithProbability overrides the source of mission success percentages.
func WithProbability(f func() int) GadgetOption {
	return func(s *GadgetService) { s.probability = f }
}

// WithClock overrides the time source for decommission timestamps.
func WithClock(now func() time.Time) GadgetOption {
	return func(s *GadgetService) { s.now = now }
}

// NewGadgetService creates a new GadgetService.
func NewGadgetService(gadgets domain.GadgetRepository, opts ...GadgetOption) *GadgetService {
	s := &GadgetService{
		gadgets:     gadgets,
		codenames:   CodenameFunc(RandomCodename),
		probability: func() int { return mrand.IntN(101) },
		confirm:     confirmationCode,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new gadget in the Available state under a freshly
// generated codename.
func (s *GadgetService) Create(ctx context.Context, name string) (*domain.Gadget, error) {
	var lastErr error
	for range codenameAttempts {
		g := &domain.Gadget{
			Name:     name,
			Codename: s.codenames.Generate(),
			Status:   domain.StatusAvailable,
		}
		err := s.gadgets.Create(ctx, g)
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, domain.ErrDuplicateCodename) {
			return nil, fmt.Errorf("create gadget: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("create gadget: no free codename after %d attempts: %w", codenameAttempts, lastErr)
}

// List returns all gadgets, or only those in status when it is non-nil.
func (s *GadgetService) List(ctx context.Context, status *domain.GadgetStatus) ([]GadgetView, error) {
	gadgets, err := s.gadgets.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list gadgets: %w", err)
	}

	views := make([]GadgetView, len(gadgets))
	for i, g := range gadgets {
		views[i] = GadgetView{
			Gadget:                    g,
			MissionSuccessProbability: fmt.Sprintf("%s - %d%% success probability", g.Codename, s.probability()),
		}
	}
	return views, nil
}

// Get returns one gadget, or NotFound.
func (s *GadgetService) Get(ctx context.Context, id uuid.UUID) (*domain.Gadget, error) {
	g, err := s.gadgets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("gadget not found")
		}
		return nil, fmt.Errorf("get gadget: %w", err)
	}
	return g, nil
}

// Update applies the non-nil fields of patch. Assigning the status the
// gadget already has is rejected.
func (s *GadgetService) Update(ctx context.Context, id uuid.UUID, patch domain.GadgetPatch) (*domain.Gadget, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Empty() {
		return nil, domain.BadRequest("no update necessary")
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, domain.BadRequest(fmt.Sprintf("unknown status %q", *patch.Status))
		}
		if *patch.Status == g.Status {
			return nil, domain.BadRequest(fmt.Sprintf("no update necessary: gadget is already %s", g.Status))
		}
		g.Status = *patch.Status
	}
	if patch.Name != nil {
		g.Name = *patch.Name
	}

	if err := s.gadgets.Update(ctx, g); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("gadget not found")
		}
		return nil, fmt.Errorf("update gadget: %w", err)
	}
	return g, nil
}

// Decommission retires a gadget, setting its status and decommission time
// together.
func (s *GadgetService) Decommission(ctx context.Context, id uuid.UUID) (*domain.Gadget, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Status == domain.StatusDecommissioned {
		return nil, domain.BadRequest("gadget is already decommissioned")
	}

	updated, err := s.gadgets.Decommission(ctx, id, s.now())
	if err != nil {
		// The gadget existed above, so no match means a concurrent
		// decommission got there first.
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.BadRequest("gadget is already decommissioned")
		}
		return nil, fmt.Errorf("decommission gadget: %w", err)
	}
	return updated, nil
}

// SelfDestruct marks a gadget Destroyed and returns a one-time confirmation
// code. The code is for display only and is not stored.
func (s *GadgetService) SelfDestruct(ctx context.Context, id uuid.UUID) (*domain.Gadget, string, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if g.Status == domain.StatusDestroyed {
		return nil, "", domain.BadRequest("gadget is already destroyed")
	}

	code, err := s.confirm()
	if err != nil {
		return nil, "", fmt.Errorf("confirmation code: %w", err)
	}

	g.Status = domain.StatusDestroyed
	if err := s.gadgets.Update(ctx, g); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.NotFound("gadget not found")
		}
		return nil, "", fmt.Errorf("self-destruct gadget: %w", err)
	}
	return g, code, nil
}

func confirmationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", ConfirmationCodeLength, n.Int64()), nil
}
