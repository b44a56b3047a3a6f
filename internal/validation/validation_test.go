package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/gadget-registry/internal/domain"
	"github.com/msomdec/gadget-registry/internal/validation"
)

func ptr[T any](v T) *T { return &v }

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	e, ok := domain.AsError(err)
	require.True(t, ok, "expected *domain.Error, got %v", err)
	require.Equal(t, domain.KindValidationFailed, e.Kind)

	out := make(map[string]string, len(e.Details))
	for _, d := range e.Details {
		out[d.Field] = d.Message
	}
	return out
}

func TestCredentialsInput(t *testing.T) {
	v := validation.New()

	require.NoError(t, v.Struct(validation.CredentialsInput{Email: "bond@mi6.gov.uk", Password: "password123"}))

	errs := fieldErrors(t, v.Struct(validation.CredentialsInput{Email: "not-an-email", Password: "short"}))
	assert.Equal(t, "must be a valid email address", errs["email"])
	assert.Equal(t, "must be at least 8 characters", errs["password"])

	errs = fieldErrors(t, v.Struct(validation.CredentialsInput{}))
	assert.Equal(t, "is required", errs["email"])
	assert.Equal(t, "is required", errs["password"])

	require.NoError(t, v.Struct(validation.CredentialsInput{Email: "a@b.co", Password: strings.Repeat("x", 200)}))
	require.NoError(t, v.Struct(validation.CredentialsInput{Email: "a@b.co", Password: strings.Repeat("日", 30)}))
}

func TestCreateGadgetInput(t *testing.T) {
	v := validation.New()

	require.NoError(t, v.Struct(validation.CreateGadgetInput{Name: "Voice Changer"}))
	require.NoError(t, v.Struct(validation.CreateGadgetInput{Name: strings.Repeat("a", 255)}))

	errs := fieldErrors(t, v.Struct(validation.CreateGadgetInput{Name: ""}))
	assert.Equal(t, "is required", errs["name"])

	errs = fieldErrors(t, v.Struct(validation.CreateGadgetInput{Name: "   "}))
	assert.Equal(t, "must not be blank", errs["name"])

	errs = fieldErrors(t, v.Struct(validation.CreateGadgetInput{Name: strings.Repeat("a", 256)}))
	assert.Equal(t, "must be at most 255 characters", errs["name"])
}

func TestIDParams(t *testing.T) {
	v := validation.New()

	require.NoError(t, v.Struct(validation.IDParams{ID: "3f1c8f7e-8c43-4f4e-9d55-2f6a3c1b9e10"}))
	require.NoError(t, v.Struct(validation.IDParams{ID: "3F1C8F7E-8C43-4F4E-9D55-2F6A3C1B9E10"}))

	for _, id := range []string{
		"123",
		"3f1c8f7e8c434f4e9d552f6a3c1b9e10",
		"{3f1c8f7e-8c43-4f4e-9d55-2f6a3c1b9e10}",
		"urn:uuid:3f1c8f7e-8c43-4f4e-9d55-2f6a3c1b9e10",
		"3f1c8f7e-8c43-4f4e-9d55-2f6a3c1b9e1g",
	} {
		errs := fieldErrors(t, v.Struct(validation.IDParams{ID: id}))
		assert.Equal(t, "must be a valid UUID", errs["id"], id)
	}
}

func TestUpdateGadgetInput(t *testing.T) {
	v := validation.New()

	require.NoError(t, v.Struct(validation.UpdateGadgetInput{}))
	require.NoError(t, v.Struct(validation.UpdateGadgetInput{Name: ptr("Exploding Pen")}))
	require.NoError(t, v.Struct(validation.UpdateGadgetInput{Status: ptr("Deployed")}))

	errs := fieldErrors(t, v.Struct(validation.UpdateGadgetInput{Status: ptr("Lost")}))
	assert.Equal(t, "must be one of: Available, Deployed, Destroyed, Decommissioned", errs["status"])

	errs = fieldErrors(t, v.Struct(validation.UpdateGadgetInput{Status: ptr("")}))
	assert.Contains(t, errs, "status")

	errs = fieldErrors(t, v.Struct(validation.UpdateGadgetInput{Name: ptr(" ")}))
	assert.Equal(t, "must not be blank", errs["name"])
}

func TestListGadgetsQuery(t *testing.T) {
	v := validation.New()

	require.NoError(t, v.Struct(validation.ListGadgetsQuery{}))
	require.NoError(t, v.Struct(validation.ListGadgetsQuery{Status: "Destroyed"}))

	errs := fieldErrors(t, v.Struct(validation.ListGadgetsQuery{Status: "destroyed"}))
	assert.Contains(t, errs, "status")
}

func TestStruct_NotAStruct(t *testing.T) {
	err := validation.New().Struct("nope")
	require.Error(t, err)
	_, ok := domain.AsError(err)
	assert.False(t, ok, "programming errors must not look operational")
}

func TestDecodeMap(t *testing.T) {
	var q validation.ListGadgetsQuery
	require.NoError(t, validation.DecodeMap(map[string]string{"status": "Deployed", "ignored": "x"}, &q))
	assert.Equal(t, "Deployed", q.Status)

	var p validation.IDParams
	require.NoError(t, validation.DecodeMap(map[string]string{"id": "abc"}, &p))
	assert.Equal(t, "abc", p.ID)
}
