package printing

import (
	"time"

	"github.com/google/uuid"

	"github.com/rxforms/backend/internal/domain/document"
	infra "github.com/rxforms/backend/internal/infrastructure/printing"
)

// PatientRecord is the patient data a print is filled with. It is read
// from the request and never stored.
type PatientRecord struct {
	Name      string     `json:"name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	// Age is printed as given when BirthDate is not set
	Age     string `json:"age,omitempty"`
	Address string `json:"address,omitempty"`
}

// PrintRequest selects a document, the values for its placeholders and the
// output format.
//
// Exactly one of Name and Model identifies the document; Model wins when
// both are set. Variables are applied on top of the values built from
// Patient and Prescription.
type PrintRequest struct {
	Name         string            `json:"name"`
	Model        *document.Model   `json:"model,omitempty"`
	Variables    map[string]string `json:"variables,omitempty"`
	Patient      *PatientRecord    `json:"patient,omitempty"`
	Prescription string            `json:"prescription,omitempty"`
	Format       string            `json:"format,omitempty"`
}

// PrintResult is a rendered print
type PrintResult struct {
	JobID  uuid.UUID
	Result *infra.Result
	// ArchivePath is empty when archiving is disabled
	ArchivePath string
}
