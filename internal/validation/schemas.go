package validation

// CredentialsInput is the body of register and sign-in requests.
type CredentialsInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// CreateGadgetInput is the body of a gadget create request.
type CreateGadgetInput struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}

// IDParams is the path parameter set of single-gadget routes.
type IDParams struct {
	ID string `mapstructure:"id" validate:"required,uuid"`
}

// UpdateGadgetInput is a partial update; absent fields stay nil.
type UpdateGadgetInput struct {
	Name   *string `json:"name" validate:"omitnil,notblank,max=255"`
	Status *string `json:"status" validate:"omitnil,gadget_status"`
}

// ListGadgetsQuery filters the gadget list by status.
type ListGadgetsQuery struct {
	Status string `mapstructure:"status" validate:"omitempty,gadget_status"`
}
