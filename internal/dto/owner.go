package dto

// CreateOwnerRequest is the public registration payload
type CreateOwnerRequest struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email,max=255"`
	FirstName string `json:"first_name" validate:"required,notblank,max=150"`
	LastName  string `json:"last_name" validate:"required,notblank,max=150"`
	Password  string `json:"password" validate:"required"`
}
