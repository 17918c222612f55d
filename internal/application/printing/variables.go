package printing

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Placeholder keys filled from a patient record
const (
	VarPatient        = "{{paciente}}"
	VarAge            = "{{idade}}"
	VarPrescription   = "{{receita}}"
	VarPatientAddress = "{{paciente_end}}"
	VarDate           = "{{data}}"
)

// DateLayout formats {{data}}
const DateLayout = "02/01/2006"

// BuildVariables returns the placeholder map for a patient, a prescription
// text and the print date
func BuildVariables(patient PatientRecord, prescription string, now time.Time) map[string]string {
	title := cases.Title(language.BrazilianPortuguese)
	return map[string]string{
		VarPatient:        title.String(strings.Join(strings.Fields(patient.Name), " ")),
		VarAge:            patientAge(patient, now),
		VarPrescription:   prescription,
		VarPatientAddress: strings.TrimSpace(patient.Address),
		VarDate:           now.Format(DateLayout),
	}
}

func patientAge(patient PatientRecord, now time.Time) string {
	if patient.BirthDate == nil || patient.BirthDate.IsZero() {
		return strings.TrimSpace(patient.Age)
	}
	years := ageInYears(*patient.BirthDate, now)
	if years == 1 {
		return "1 ano"
	}
	return fmt.Sprintf("%d anos", years)
}

// ageInYears counts completed years between birth and now
func ageInYears(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return max(years, 0)
}
