package suppliers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validValues() FormValues {
	return FormValues{
		Name:       "Distribuidora Sur",
		Contact:    "Pedro",
		Email:      "pedro@sur.example",
		Phone:      "2233445",
		Active:     true,
		Categories: " abarrotes, ,bebidas ,",
	}
}

func newLoadedController(t *testing.T, preload []Supplier) (*FormController, *testEnv) {
	t.Helper()
	env := newTestEnv(t, nil)
	if preload != nil {
		env.preload(t, preload)
	}
	_, err := env.service.Init(context.Background())
	require.NoError(t, err)
	ctrl := NewFormController(env.service, discardLogger())
	ctrl.Load()
	t.Cleanup(ctrl.Close)
	return ctrl, env
}

func TestSubmitRejectsInvalidValues(t *testing.T) {
	ctrl, env := newLoadedController(t, nil)

	ok := ctrl.Submit(context.Background(), FormValues{Name: "A", Contact: "", Email: "no-es-email", Phone: "123"})
	assert.False(t, ok)
	assert.Contains(t, ctrl.Errors, "nombre")
	assert.Contains(t, ctrl.Errors, "contacto")
	assert.Contains(t, ctrl.Errors, "email")
	assert.Contains(t, ctrl.Errors, "telefono")
	assert.Empty(t, ctrl.Success)
	assert.Empty(t, env.service.GetAll())
}

func TestSubmitCreatesAndResetsForm(t *testing.T) {
	ctrl, env := newLoadedController(t, nil)

	require.True(t, ctrl.Submit(context.Background(), validValues()))
	assert.Equal(t, MsgCreated, ctrl.Success)
	assert.Equal(t, DefaultFormValues(), ctrl.Values)

	list := env.service.GetAll()
	require.Len(t, list, 1)
	assert.Equal(t, []string{"abarrotes", "bebidas"}, list[0].Categories)
	assert.Empty(t, list[0].Address)
	assert.Equal(t, list, ctrl.Suppliers())
}

func TestSubmitKeepsWhitespaceInFields(t *testing.T) {
	ctrl, env := newLoadedController(t, nil)

	values := validValues()
	values.Name = " x"
	values.Contact = "  "
	require.True(t, ctrl.Submit(context.Background(), values))

	list := env.service.GetAll()
	require.Len(t, list, 1)
	assert.Equal(t, " x", list[0].Name)
	assert.Equal(t, "  ", list[0].Contact)
}

func TestSubmitInEditModeUpdates(t *testing.T) {
	ctrl, env := newLoadedController(t, []Supplier{{ID: 1, Name: "Viejo", Contact: "Ana", Email: "a@x.io", Phone: "123456", Address: "Calle 1", Active: true, Categories: []string{"a", "b"}}})
	sup, _ := env.service.GetByID(1)

	ctrl.Edit(sup)
	assert.True(t, ctrl.Editing)
	assert.Equal(t, "a, b", ctrl.Values.Categories)

	values := ctrl.Values
	values.Name = "Nuevo"
	values.Address = ""
	values.Categories = ""
	require.True(t, ctrl.Submit(context.Background(), values))
	assert.Equal(t, MsgUpdated, ctrl.Success)
	assert.False(t, ctrl.Editing)
	assert.Zero(t, ctrl.EditingID)

	updated, _ := env.service.GetByID(1)
	assert.Equal(t, "Nuevo", updated.Name)
	assert.Empty(t, updated.Address)
	assert.Nil(t, updated.Categories)
}

func TestSubmitUpdateOfMissingSupplier(t *testing.T) {
	ctrl, env := newLoadedController(t, []Supplier{{ID: 1, Name: "Uno"}})
	sup, _ := env.service.GetByID(1)
	ctrl.Edit(sup)

	_, err := env.service.Delete(context.Background(), 1)
	require.NoError(t, err)

	assert.False(t, ctrl.Submit(context.Background(), validValues()))
	assert.Equal(t, MsgUpdateNotFound, ctrl.Error)
	assert.Empty(t, env.service.GetAll())
}

func TestCancelResetsForm(t *testing.T) {
	ctrl, env := newLoadedController(t, []Supplier{{ID: 1, Name: "Uno"}})
	sup, _ := env.service.GetByID(1)
	ctrl.Edit(sup)

	ctrl.Cancel()
	assert.False(t, ctrl.Editing)
	assert.Equal(t, DefaultFormValues(), ctrl.Values)
}

func TestDeleteFlow(t *testing.T) {
	ctrl, env := newLoadedController(t, []Supplier{{ID: 1, Name: "Uno"}, {ID: 2, Name: "Dos"}})
	one, _ := env.service.GetByID(1)

	assert.False(t, ctrl.Delete(context.Background(), one, func(Supplier) bool { return false }))
	assert.Len(t, env.service.GetAll(), 2)
	assert.Empty(t, ctrl.Error)

	ctrl.Edit(one)
	var asked string
	assert.True(t, ctrl.Delete(context.Background(), one, func(s Supplier) bool {
		asked = s.Name
		return true
	}))
	assert.Equal(t, "Uno", asked)
	assert.Equal(t, MsgDeleted, ctrl.Success)
	assert.False(t, ctrl.Editing)
	assert.Equal(t, []int64{2}, ids(ctrl.Suppliers()))

	assert.False(t, ctrl.Delete(context.Background(), one, nil))
	assert.Equal(t, MsgDeleteNotFound, ctrl.Error)
}

func TestDeleteOtherRecordKeepsEditMode(t *testing.T) {
	ctrl, env := newLoadedController(t, []Supplier{{ID: 1, Name: "Uno"}, {ID: 2, Name: "Dos"}})
	one, _ := env.service.GetByID(1)
	two, _ := env.service.GetByID(2)

	ctrl.Edit(one)
	require.True(t, ctrl.Delete(context.Background(), two, nil))
	assert.True(t, ctrl.Editing)
	assert.Equal(t, int64(1), ctrl.EditingID)
}

func TestReseedFromController(t *testing.T) {
	remote := &stubSource{list: []Supplier{{ID: 1, Name: "Seed", Active: true}}}
	env := newTestEnv(t, &Seeder{Remote: remote})
	env.preload(t, []Supplier{{ID: 8, Name: "Local"}})
	_, err := env.service.Init(context.Background())
	require.NoError(t, err)

	ctrl := NewFormController(env.service, discardLogger())
	ctrl.Load()
	defer ctrl.Close()
	local, _ := env.service.GetByID(8)
	ctrl.Edit(local)

	require.True(t, ctrl.Reseed(context.Background()))
	assert.Equal(t, MsgReseeded, ctrl.Success)
	assert.False(t, ctrl.Editing)
	assert.False(t, ctrl.Loading)
	assert.Equal(t, []int64{1}, ids(ctrl.Suppliers()))
}

type failingManager struct {
	*Service
	reseedErr error
	loadErr   error
}

func (m failingManager) ResetToSeed(ctx context.Context) ([]Supplier, error) {
	return nil, m.reseedErr
}

func (m failingManager) Loaded() bool {
	return true
}

func (m failingManager) LoadErr() error {
	return m.loadErr
}

func TestLoadingUntilServiceInitialised(t *testing.T) {
	env := newTestEnv(t, &Seeder{Remote: &stubSource{list: []Supplier{{ID: 1, Name: "Seed"}}}})

	pending := NewFormController(env.service, discardLogger())
	pending.Load()
	defer pending.Close()
	assert.True(t, pending.Loading)

	_, err := env.service.Init(context.Background())
	require.NoError(t, err)

	ready := NewFormController(env.service, discardLogger())
	ready.Load()
	defer ready.Close()
	assert.False(t, ready.Loading)
}

func TestReseedFailureAndLoadFailureMessages(t *testing.T) {
	env := newTestEnv(t, nil)
	manager := failingManager{Service: env.service, reseedErr: errors.New("redis down"), loadErr: errors.New("redis down")}

	ctrl := NewFormController(manager, discardLogger())
	ctrl.Load()
	defer ctrl.Close()
	assert.Equal(t, MsgLoadFailed, ctrl.Error)
	assert.False(t, ctrl.Loading)

	assert.False(t, ctrl.Reseed(context.Background()))
	assert.Equal(t, MsgReseedFailed, ctrl.Error)
	assert.Empty(t, ctrl.Success)
}

func TestSplitCategories(t *testing.T) {
	cases := map[string][]string{
		"":                 nil,
		" , ,":             nil,
		"a":                {"a"},
		" a , b,,c ":       {"a", "b", "c"},
		"metal, madera  ,": {"metal", "madera"},
	}
	for in, want := range cases {
		assert.Equal(t, want, SplitCategories(in), in)
	}
}
