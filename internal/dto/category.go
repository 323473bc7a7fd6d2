package dto

// CategoryRequest is used for both create and update
type CategoryRequest struct {
	Name string `json:"name" validate:"max=100"`
}
