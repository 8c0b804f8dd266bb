package suppliers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// User-facing messages.
const (
	MsgLoadFailed     = "No se pudo cargar la lista de proveedores."
	MsgUpdateNotFound = "No se encontró el proveedor para actualizar."
	MsgUpdated        = "Proveedor actualizado."
	MsgCreated        = "Proveedor creado."
	MsgDeleteNotFound = "No se pudo eliminar (id no existe)."
	MsgDeleted        = "Proveedor eliminado."
	MsgReseeded       = "Seed recargado (se restauró la lista desde JSON)."
	MsgReseedFailed   = "No se pudo recargar el seed."
	MsgSaveFailed     = "No se pudo guardar el proveedor."
	MsgDeleteFailed   = "No se pudo eliminar el proveedor."
)

// Manager is the subset of Service used by the form controller.
type Manager interface {
	Create(ctx context.Context, draft Draft) (Supplier, error)
	Update(ctx context.Context, id int64, patch Patch) (Supplier, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ResetToSeed(ctx context.Context) ([]Supplier, error)
	Subscribe(fn func([]Supplier)) func()
	Loaded() bool
	LoadErr() error
}

// FormValues holds the raw form fields. Categories is a comma separated string.
type FormValues struct {
	Name       string `form:"nombre" validate:"required,min=2"`
	Contact    string `form:"contacto" validate:"required,min=2"`
	Email      string `form:"email" validate:"required,email"`
	Phone      string `form:"telefono" validate:"required,min=6"`
	Address    string `form:"direccion"`
	Active     bool   `form:"activo"`
	Categories string `form:"categorias"`
}

// DefaultFormValues is the state of a freshly reset form.
func DefaultFormValues() FormValues {
	return FormValues{Active: true}
}

// FormController drives the supplier form: validation, edit mode and the
// transient error/success messages.
type FormController struct {
	manager  Manager
	validate *validator.Validate
	logger   *slog.Logger

	Values    FormValues
	Errors    map[string]string
	Error     string
	Success   string
	Editing   bool
	EditingID int64
	Loading   bool

	mu          sync.Mutex
	suppliers   []Supplier
	unsubscribe func()
}

// NewFormController builds a controller with a reset form.
func NewFormController(manager Manager, logger *slog.Logger) *FormController {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormController{
		manager:  manager,
		validate: newValidator(),
		logger:   logger,
		Values:   DefaultFormValues(),
		Errors:   map[string]string{},
		Loading:  true,
	}
}

// Load subscribes to the supplier list. Loading stays set until the service
// has finished its initial load. A failed initial load is reported through Error.
func (c *FormController) Load() {
	if c.unsubscribe != nil {
		return
	}
	c.unsubscribe = c.manager.Subscribe(func(list []Supplier) {
		c.mu.Lock()
		c.suppliers = list
		c.mu.Unlock()
	})
	if err := c.manager.LoadErr(); err != nil {
		c.logger.Error("supplier list load failed", slog.Any("error", err))
		c.Error = MsgLoadFailed
	}
	c.Loading = !c.manager.Loaded()
}

// Close drops the list subscription.
func (c *FormController) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Suppliers returns the latest list received from the service.
func (c *FormController) Suppliers() []Supplier {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suppliers
}

// Submit validates values and creates or updates a supplier. It reports
// whether the service accepted the change.
func (c *FormController) Submit(ctx context.Context, values FormValues) bool {
	c.clearMessages()
	c.Values = values
	c.Errors = map[string]string{}

	if err := c.validate.Struct(c.Values); err != nil {
		c.Errors = fieldErrors(err)
		return false
	}

	if c.Editing {
		_, err := c.manager.Update(ctx, c.EditingID, c.Values.Patch())
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.Error = MsgUpdateNotFound
			} else {
				c.logger.Error("update supplier", slog.Any("error", err), slog.Int64("id", c.EditingID))
				c.Error = MsgSaveFailed
			}
			return false
		}
		c.Success = MsgUpdated
		c.Cancel()
		return true
	}

	if _, err := c.manager.Create(ctx, c.Values.Draft()); err != nil {
		c.logger.Error("create supplier", slog.Any("error", err))
		c.Error = MsgSaveFailed
		return false
	}
	c.Success = MsgCreated
	c.resetForm()
	return true
}

// Edit copies s into the form and enters edit mode.
func (c *FormController) Edit(s Supplier) {
	c.clearMessages()
	c.Editing = true
	c.EditingID = s.ID
	c.Errors = map[string]string{}
	c.Values = FormValues{
		Name:       s.Name,
		Contact:    s.Contact,
		Email:      s.Email,
		Phone:      s.Phone,
		Address:    s.Address,
		Active:     s.Active,
		Categories: strings.Join(s.Categories, ", "),
	}
}

// Cancel leaves edit mode and resets the form. Messages are kept.
func (c *FormController) Cancel() {
	c.Editing = false
	c.EditingID = 0
	c.resetForm()
}

// Delete removes s after confirm approves it.
func (c *FormController) Delete(ctx context.Context, s Supplier, confirm func(Supplier) bool) bool {
	c.clearMessages()
	if confirm != nil && !confirm(s) {
		return false
	}
	deleted, err := c.manager.Delete(ctx, s.ID)
	if err != nil {
		c.logger.Error("delete supplier", slog.Any("error", err), slog.Int64("id", s.ID))
		c.Error = MsgDeleteFailed
		return false
	}
	if !deleted {
		c.Error = MsgDeleteNotFound
		return false
	}
	c.Success = MsgDeleted
	if c.Editing && c.EditingID == s.ID {
		c.Cancel()
	}
	return true
}

// Reseed discards stored data and reloads the seed.
func (c *FormController) Reseed(ctx context.Context) bool {
	c.clearMessages()
	c.Loading = true
	defer func() { c.Loading = !c.manager.Loaded() }()

	if _, err := c.manager.ResetToSeed(ctx); err != nil {
		c.logger.Error("reseed suppliers", slog.Any("error", err))
		c.Error = MsgReseedFailed
		return false
	}
	c.Success = MsgReseeded
	c.Cancel()
	return true
}

func (c *FormController) clearMessages() {
	c.Error = ""
	c.Success = ""
}

func (c *FormController) resetForm() {
	c.Values = DefaultFormValues()
	c.Errors = map[string]string{}
}

// Draft builds a create payload from the form values.
func (v FormValues) Draft() Draft {
	return Draft{
		Name:       v.Name,
		Contact:    v.Contact,
		Email:      v.Email,
		Phone:      v.Phone,
		Address:    v.Address,
		Active:     v.Active,
		Categories: SplitCategories(v.Categories),
	}
}

// Patch builds an update payload carrying every form field.
func (v FormValues) Patch() Patch {
	name, contact, email, phone, address, active := v.Name, v.Contact, v.Email, v.Phone, v.Address, v.Active
	categories := SplitCategories(v.Categories)
	return Patch{
		Name:       &name,
		Contact:    &contact,
		Email:      &email,
		Phone:      &phone,
		Address:    &address,
		Active:     &active,
		Categories: &categories,
	}
}

// SplitCategories splits a comma separated string, trimming entries and
// dropping empty ones. It returns nil when nothing remains.
func SplitCategories(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
