package suppliers

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdr/proveedores/internal/shared"
	"github.com/tdr/proveedores/internal/view"
)

type stubPDF struct {
	html string
	err  error
}

func (s *stubPDF) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	s.html = html
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

type webClient struct {
	t        *testing.T
	router   http.Handler
	sessions *shared.SessionManager
	cookies  []*http.Cookie
}

func newWebClient(t *testing.T, env *testEnv, pdf PDFRenderer) *webClient {
	t.Helper()
	templates, err := view.NewEngine()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: env.mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)

	handler := NewHandler(discardLogger(), env.service, templates, shared.NewCSRFManager("secret"), pdf)
	r := chi.NewRouter()
	r.Route("/suppliers", handler.MountRoutes)
	r.Route("/api/suppliers", NewAPI(discardLogger(), env.service).MountRoutes)
	return &webClient{t: t, router: r, sessions: sessions}
}

func (c *webClient) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	sess, err := c.sessions.Load(req.Context(), req)
	require.NoError(c.t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	rr := httptest.NewRecorder()
	c.router.ServeHTTP(rr, req)

	jar := httptest.NewRecorder()
	require.NoError(c.t, c.sessions.Commit(context.Background(), jar, sess))
	c.cookies = jar.Result().Cookies()
	return rr
}

func initEnv(t *testing.T, preload []Supplier) *testEnv {
	t.Helper()
	env := newTestEnv(t, &Seeder{Remote: &stubSource{list: []Supplier{{ID: 1, Name: "Semilla", Active: true}}}})
	if preload != nil {
		env.preload(t, preload)
	}
	_, err := env.service.Init(context.Background())
	require.NoError(t, err)
	return env
}

func formFrom(v FormValues) url.Values {
	form := url.Values{}
	form.Set("nombre", v.Name)
	form.Set("contacto", v.Contact)
	form.Set("email", v.Email)
	form.Set("telefono", v.Phone)
	form.Set("direccion", v.Address)
	form.Set("categorias", v.Categories)
	if v.Active {
		form.Set("activo", "true")
	}
	return form
}

func TestIndexListsSuppliers(t *testing.T) {
	env := initEnv(t, []Supplier{{ID: 1, Name: "Ferretería Sur", Categories: []string{"metal", "madera"}}})
	c := newWebClient(t, env, nil)

	rr := c.do(http.MethodGet, "/suppliers", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Ferretería Sur")
	assert.Contains(t, body, "metal, madera")
	assert.Contains(t, body, "Nuevo proveedor")
	assert.Contains(t, body, `name="csrf_token"`)
}

func TestIndexShowsLoadingBeforeInit(t *testing.T) {
	env := newTestEnv(t, &Seeder{Remote: &stubSource{list: []Supplier{{ID: 1, Name: "Semilla"}}}})
	c := newWebClient(t, env, nil)

	rr := c.do(http.MethodGet, "/suppliers", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Cargando")

	_, err := env.service.Init(context.Background())
	require.NoError(t, err)
	rr = c.do(http.MethodGet, "/suppliers", nil)
	assert.NotContains(t, rr.Body.String(), "Cargando")
}

func TestCreateRedirectsWithFlash(t *testing.T) {
	env := initEnv(t, []Supplier{{ID: 1, Name: "Uno"}})
	c := newWebClient(t, env, nil)

	rr := c.do(http.MethodPost, "/suppliers", formFrom(validValues()))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/suppliers", rr.Header().Get("Location"))

	created, found := env.service.GetByID(2)
	require.True(t, found)
	assert.Equal(t, "Distribuidora Sur", created.Name)
	assert.Equal(t, []string{"abarrotes", "bebidas"}, created.Categories)

	page := c.do(http.MethodGet, "/suppliers", nil)
	assert.Contains(t, page.Body.String(), MsgCreated)

	again := c.do(http.MethodGet, "/suppliers", nil)
	assert.NotContains(t, again.Body.String(), MsgCreated)
}

func TestCreateInvalidRendersErrors(t *testing.T) {
	env := initEnv(t, []Supplier{{ID: 1, Name: "Uno"}})
	c := newWebClient(t, env, nil)

	values := validValues()
	values.Name = "X"
	rr := c.do(http.MethodPost, "/suppliers", formFrom(values))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Debe tener al menos 2 caracteres.")
	assert.Contains(t, rr.Body.String(), `value="pedro@sur.example"`)
	assert.Len(t, env.service.GetAll(), 1)
}

func TestEditThenUpdate(t *testing.T) {
	env := initEnv(t, []Supplier{{ID: 1, Name: "Uno", Contact: "Ana", Email: "a@x.io", Phone: "123456", Active: true}})
	c := newWebClient(t, env, nil)

	edit := c.do(http.MethodGet, "/suppliers/1/edit", nil)
	require.Equal(t, http.StatusOK, edit.Code)
	assert.Contains(t, edit.Body.String(), "Editar proveedor #1")
	assert.Contains(t, edit.Body.String(), `value="Uno"`)

	values := validValues()
	values.Name = "Uno Renombrado"
	rr := c.do(http.MethodPost, "/suppliers", formFrom(values))
	require.Equal(t, http.StatusSeeOther, rr.Code)

	updated, _ := env.service.GetByID(1)
	assert.Equal(t, "Uno Renombrado", updated.Name)
	assert.Len(t, env.service.GetAll(), 1)

	page := c.do(http.MethodGet, "/suppliers", nil)
	assert.Contains(t, page.Body.String(), MsgUpdated)
	assert.Contains(t, page.Body.String(), "Nuevo proveedor")
}

func TestCancelLeavesEditMode(t *testing.T) {
	env := initEnv(t, []Supplier{{ID: 1, Name: "Uno"}})
	c := newWebClient(t, env, nil)

	c.do(http.MethodGet, "/suppliers/1/edit", nil)
	rr := c.do(http.MethodPost, "/suppliers/cancel", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	page := c.do(http.MethodGet, "/suppliers", nil)
	assert.Contains(t, page.Body.String(), "Nuevo proveedor")
}

func TestEditUnknownSupplierRedirects(t *testing.T) {
	env := initEnv(t, []Supplier{{ID: 1, Name: "Uno"}})
	c := newWebClient(t, env, nil)

	rr := c.do(http.MethodGet, "/suppliers/7/edit", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	page := c.do(http.MethodGet, "/suppliers", nil)
	assert.Contains(t, page.Body.String(), MsgUpdateNotFound)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	env := initEnv(t, []Supplier{{ID: 1, Name: "Uno"}, {ID: 2, Name: "Dos"}})
	c := newWebClient(t, env, nil)

	confirm := c.do(http.MethodGet, "/suppliers/1/delete", nil)
	require.Equal(t, http.StatusOK, confirm.Code)
	assert.Contains(t, confirm.Body.String(), "¿Eliminar proveedor")

	rr := c.do(http.MethodPost, "/suppliers/1/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Len(t, env.service.GetAll(), 2)

	rr = c.do(http.MethodPost, "/suppliers/1/delete", url.Values{"confirm": {"si"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, []int64{2}, ids(env.service.GetAll()))
	assert.Contains(t, c.do(http.MethodGet, "/suppliers", nil).Body.String(), MsgDeleted)

	c.do(http.MethodPost, "/suppliers/1/delete", url.Values{"confirm": {"si"}})
	assert.Contains(t, c.do(http.MethodGet, "/suppliers", nil).Body.String(), MsgDeleteNotFound)
}

func TestReseedPage(t *testing.T) {
	env := initEnv(t, []Supplier{{ID: 5, Name: "Local"}})
	c := newWebClient(t, env, nil)

	rr := c.do(http.MethodPost, "/suppliers/reseed", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, []int64{1}, ids(env.service.GetAll()))

	page := c.do(http.MethodGet, "/suppliers", nil).Body.String()
	assert.Contains(t, page, "Seed recargado")
	assert.Contains(t, page, "Semilla")
}

func TestJSONToggleAndSorting(t *testing.T) {
	env := initEnv(t, []Supplier{{ID: 1, Name: "Zeta"}, {ID: 2, Name: "árbol"}, {ID: 3, Name: "Beta"}})
	c := newWebClient(t, env, nil)

	body := c.do(http.MethodGet, "/suppliers?json=1&sort=nombre", nil).Body.String()
	assert.Contains(t, body, `class="json"`)
	assert.Contains(t, body, "Ocultar JSON")
	first := strings.Index(body, "<td>árbol</td>")
	second := strings.Index(body, "<td>Beta</td>")
	third := strings.Index(body, "<td>Zeta</td>")
	require.True(t, first > 0 && second > 0 && third > 0)
	assert.True(t, first < second && second < third)
}

func TestInvalidIDIsRejected(t *testing.T) {
	env := initEnv(t, nil)
	c := newWebClient(t, env, nil)

	rr := c.do(http.MethodGet, "/suppliers/abc/edit", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExportCSV(t *testing.T) {
	env := initEnv(t, []Supplier{{ID: 1, Name: "Uno", Active: true, Categories: []string{"a", "b"}}})
	c := newWebClient(t, env, nil)

	rr := c.do(http.MethodGet, "/suppliers/export.csv", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))

	rows, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"1", "Uno", "", "", "", "", "true", "a;b"}, rows[1])
}

func TestExportPDF(t *testing.T) {
	env := initEnv(t, []Supplier{{ID: 1, Name: "Uno"}})

	pdf := &stubPDF{}
	rr := newWebClient(t, env, pdf).do(http.MethodGet, "/suppliers/export.pdf", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, pdf.html, "<td>Uno</td>")

	failing := &stubPDF{err: errors.New("gotenberg down")}
	rr = newWebClient(t, env, failing).do(http.MethodGet, "/suppliers/export.pdf", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	rr = newWebClient(t, env, nil).do(http.MethodGet, "/suppliers/export.pdf", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
