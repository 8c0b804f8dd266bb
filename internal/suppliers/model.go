package suppliers

// Supplier represents a supplier (proveedor) record. The JSON keys are the
// storage and seed format.
type Supplier struct {
	ID         int64    `json:"id"`
	Name       string   `json:"nombre"`
	Contact    string   `json:"contacto"`
	Email      string   `json:"email"`
	Phone      string   `json:"telefono"`
	Address    string   `json:"direccion,omitempty"`
	Active     bool     `json:"activo"`
	Categories []string `json:"categorias,omitempty"`
}

// Draft carries the fields of a supplier that does not have an ID yet.
type Draft struct {
	Name       string   `json:"nombre" validate:"required,min=2"`
	Contact    string   `json:"contacto" validate:"required,min=2"`
	Email      string   `json:"email" validate:"required,email"`
	Phone      string   `json:"telefono" validate:"required,min=6"`
	Address    string   `json:"direccion,omitempty"`
	Active     bool     `json:"activo"`
	Categories []string `json:"categorias,omitempty"`
}

// Patch is a partial update. Nil fields are left untouched; a non-nil empty
// Address or Categories clears the value.
type Patch struct {
	Name       *string   `json:"nombre,omitempty" validate:"omitempty,min=2"`
	Contact    *string   `json:"contacto,omitempty" validate:"omitempty,min=2"`
	Email      *string   `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string   `json:"telefono,omitempty" validate:"omitempty,min=6"`
	Address    *string   `json:"direccion,omitempty"`
	Active     *bool     `json:"activo,omitempty"`
	Categories *[]string `json:"categorias,omitempty"`
}

func (d Draft) supplier(id int64) Supplier {
	return Supplier{
		ID:         id,
		Name:       d.Name,
		Contact:    d.Contact,
		Email:      d.Email,
		Phone:      d.Phone,
		Address:    d.Address,
		Active:     d.Active,
		Categories: cloneStrings(d.Categories),
	}
}

func (p Patch) apply(s Supplier) Supplier {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Contact != nil {
		s.Contact = *p.Contact
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Phone != nil {
		s.Phone = *p.Phone
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Active != nil {
		s.Active = *p.Active
	}
	if p.Categories != nil {
		s.Categories = cloneStrings(*p.Categories)
	}
	return s
}

func (s Supplier) clone() Supplier {
	s.Categories = cloneStrings(s.Categories)
	return s
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneList(in []Supplier) []Supplier {
	out := make([]Supplier, len(in))
	for i, s := range in {
		out[i] = s.clone()
	}
	return out
}

// seedRecord mirrors Supplier but keeps the active flag optional so absent
// values can default to true.
type seedRecord struct {
	ID         int64    `json:"id"`
	Name       string   `json:"nombre"`
	Contact    string   `json:"contacto"`
	Email      string   `json:"email"`
	Phone      string   `json:"telefono"`
	Address    string   `json:"direccion,omitempty"`
	Active     *bool    `json:"activo"`
	Categories []string `json:"categorias,omitempty"`
}

func (r seedRecord) normalize() Supplier {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return Supplier{
		ID:         r.ID,
		Name:       r.Name,
		Contact:    r.Contact,
		Email:      r.Email,
		Phone:      r.Phone,
		Address:    r.Address,
		Active:     active,
		Categories: cloneStrings(r.Categories),
	}
}
