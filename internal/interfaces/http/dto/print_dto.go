package dto

import (
	"time"

	"github.com/rxforms/backend/internal/domain/document"
)

// PatientRequest identifies the patient a prescription is printed for
type PatientRequest struct {
	Name      string     `json:"name" binding:"required,max=200"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Age       string     `json:"age,omitempty" binding:"omitempty,max=40"`
	Address   string     `json:"address,omitempty" binding:"omitempty,max=400"`
}

// PrintRequest is the body of a print or preview. Either Name or Model
// selects the document; Model wins when both are given.
type PrintRequest struct {
	Name         string            `json:"name,omitempty" binding:"omitempty,max=400"`
	Model        *document.Model   `json:"model,omitempty"`
	Variables    map[string]string `json:"variables,omitempty"`
	Patient      *PatientRequest   `json:"patient,omitempty"`
	Prescription string            `json:"prescription,omitempty"`
	Format       string            `json:"format,omitempty"`
}
