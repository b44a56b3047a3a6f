package service_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/gadget-registry/internal/domain"
	"github.com/msomdec/gadget-registry/internal/service"
)

func newTestGadgetService(t *testing.T, opts ...service.GadgetOption) *service.GadgetService {
	t.Helper()
	return service.NewGadgetService(newTestDB(t).Gadgets(), opts...)
}

func statusPtr(s domain.GadgetStatus) *domain.GadgetStatus { return &s }

func TestGadgetService_Create(t *testing.T) {
	svc := newTestGadgetService(t)

	g, err := svc.Create(context.Background(), "Voice Changer")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, g.ID)
	assert.Equal(t, "Voice Changer", g.Name)
	assert.Equal(t, domain.StatusAvailable, g.Status)
	assert.NotEmpty(t, g.Codename)
	assert.Nil(t, g.DecommissionedAt)
}

func TestGadgetService_Create_UniqueCodenames(t *testing.T) {
	svc := newTestGadgetService(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for range 20 {
		g, err := svc.Create(ctx, "Gadget")
		require.NoError(t, err)
		assert.False(t, seen[g.Codename], "codename %q reused", g.Codename)
		seen[g.Codename] = true
	}
}

func TestGadgetService_Create_RetriesCodenameCollision(t *testing.T) {
	names := []string{"The Owl", "The Owl", "The Owl", "The Wolf"}
	next := 0
	svc := newTestGadgetService(t, service.WithCodenameGenerator(service.CodenameFunc(func() string {
		n := names[next]
		next++
		return n
	})))
	ctx := context.Background()

	_, err := svc.Create(ctx, "First")
	require.NoError(t, err)

	g, err := svc.Create(ctx, "Second")
	require.NoError(t, err)
	assert.Equal(t, "The Wolf", g.Codename)
}

func TestGadgetService_Create_CodenameExhaustionIsUnexpected(t *testing.T) {
	svc := newTestGadgetService(t, service.WithCodenameGenerator(service.CodenameFunc(func() string {
		return "The Only Owl"
	})))
	ctx := context.Background()

	_, err := svc.Create(ctx, "First")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "Second")
	require.ErrorIs(t, err, domain.ErrDuplicateCodename)
	_, operational := domain.AsError(err)
	assert.False(t, operational, "collision must surface as an unexpected error")
}

var probabilityShape = regexp.MustCompile(`^(.+) - (\d{1,3})% success probability$`)

func TestGadgetService_List(t *testing.T) {
	svc := newTestGadgetService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "Exploding Pen")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "Jetpack")
	require.NoError(t, err)
	_, err = svc.Update(ctx, b.ID, domain.GadgetPatch{Status: statusPtr(domain.StatusDeployed)})
	require.NoError(t, err)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, v := range all {
		m := probabilityShape.FindStringSubmatch(v.MissionSuccessProbability)
		require.NotNil(t, m, "unexpected shape %q", v.MissionSuccessProbability)
		assert.Equal(t, v.Codename, m[1])
	}

	available, err := svc.List(ctx, statusPtr(domain.StatusAvailable))
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, a.ID, available[0].ID)
}

func TestGadgetService_List_ProbabilityIsDerivedPerRead(t *testing.T) {
	calls := 0
	svc := newTestGadgetService(t, service.WithProbability(func() int {
		calls++
		return calls
	}))
	ctx := context.Background()

	g, err := svc.Create(ctx, "Grappling Hook")
	require.NoError(t, err)

	first, err := svc.List(ctx, nil)
	require.NoError(t, err)
	second, err := svc.List(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, g.Codename+" - 1% success probability", first[0].MissionSuccessProbability)
	assert.Equal(t, g.Codename+" - 2% success probability", second[0].MissionSuccessProbability)
}

func TestGadgetService_Get_NotFound(t *testing.T) {
	svc := newTestGadgetService(t)

	_, err := svc.Get(context.Background(), uuid.New())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestGadgetService_Update_PartialMerge(t *testing.T) {
	svc := newTestGadgetService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "Laser Watch")
	require.NoError(t, err)

	name := "Laser Watch Mk II"
	updated, err := svc.Update(ctx, g.ID, domain.GadgetPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, domain.StatusAvailable, updated.Status, "status untouched")
	assert.Equal(t, g.Codename, updated.Codename, "codename never changes")

	updated, err = svc.Update(ctx, g.ID, domain.GadgetPatch{Status: statusPtr(domain.StatusDeployed)})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name, "name untouched")
	assert.Equal(t, domain.StatusDeployed, updated.Status)

	stored, err := svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, name, stored.Name)
	assert.Equal(t, domain.StatusDeployed, stored.Status)
}

func TestGadgetService_Update_SameStatusRejected(t *testing.T) {
	svc := newTestGadgetService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "Cufflink Camera")
	require.NoError(t, err)

	_, err = svc.Update(ctx, g.ID, domain.GadgetPatch{Status: statusPtr(g.Status)})
	require.True(t, domain.IsKind(err, domain.KindBadRequest), "expected BadRequest, got %v", err)
	assert.Contains(t, err.Error(), "no update necessary")
}

func TestGadgetService_Update_EmptyPatchRejected(t *testing.T) {
	svc := newTestGadgetService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "Shoe Phone")
	require.NoError(t, err)

	_, err = svc.Update(ctx, g.ID, domain.GadgetPatch{})
	assert.True(t, domain.IsKind(err, domain.KindBadRequest))
}

func TestGadgetService_Update_NotFound(t *testing.T) {
	svc := newTestGadgetService(t)

	name := "x"
	_, err := svc.Update(context.Background(), uuid.New(), domain.GadgetPatch{Name: &name})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestGadgetService_Decommission_Twice(t *testing.T) {
	fixed := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	svc := newTestGadgetService(t, service.WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	g, err := svc.Create(ctx, "Umbrella Gun")
	require.NoError(t, err)

	out, err := svc.Decommission(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDecommissioned, out.Status)
	require.NotNil(t, out.DecommissionedAt)
	assert.True(t, fixed.Equal(*out.DecommissionedAt))

	_, err = svc.Decommission(ctx, g.ID)
	assert.True(t, domain.IsKind(err, domain.KindBadRequest), "expected BadRequest, got %v", err)
}

func TestGadgetService_Decommission_NotFound(t *testing.T) {
	svc := newTestGadgetService(t)

	_, err := svc.Decommission(context.Background(), uuid.New())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestGadgetService_SelfDestruct_Twice(t *testing.T) {
	svc := newTestGadgetService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "Briefcase")
	require.NoError(t, err)

	out, code, err := svc.SelfDestruct(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDestroyed, out.Status)
	assert.Regexp(t, `^\d{6}$`, code)

	stored, err := svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDestroyed, stored.Status)

	_, _, err = svc.SelfDestruct(ctx, g.ID)
	assert.True(t, domain.IsKind(err, domain.KindBadRequest), "expected BadRequest, got %v", err)
}

func TestGadgetService_SelfDestruct_NotFound(t *testing.T) {
	svc := newTestGadgetService(t)

	_, _, err := svc.SelfDestruct(context.Background(), uuid.New())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestGadgetService_SelfDestruct_DecommissionedGadget(t *testing.T) {
	svc := newTestGadgetService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "Car")
	require.NoError(t, err)
	_, err = svc.Decommission(ctx, g.ID)
	require.NoError(t, err)

	out, _, err := svc.SelfDestruct(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDestroyed, out.Status)
}

func TestRandomCodename(t *testing.T) {
	for range 50 {
		assert.Regexp(t, `^The [A-Z][a-z]+ [A-Z][a-z]+$`, service.RandomCodename())
	}
}
