package patients

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hakeemhq/clinic-agent-platform/internal/validate"
)

// Patient is a clinic patient record. Optional fields are pointers so partial
// updates can distinguish "not supplied" from "cleared".
type Patient struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          *string   `json:"email,omitempty"`
	DateOfBirth    *string   `json:"date_of_birth,omitempty"`
	Gender         *string   `json:"gender,omitempty"`
	Address        *string   `json:"address,omitempty"`
	MedicalHistory *string   `json:"medical_history,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GenderLabelAr returns the Arabic display label used in webhook payloads and
// agent-facing responses.
func (p *Patient) GenderLabelAr() string {
	if p.Gender == nil {
		return "غير محدد"
	}
	switch *p.Gender {
	case "male":
		return "ذكر"
	case "female":
		return "أنثى"
	default:
		return "غير محدد"
	}
}

// Age derives the patient's age in years from date_of_birth, or -1 when the
// birth date is absent or unparseable.
func (p *Patient) Age(now time.Time) int {
	if p.DateOfBirth == nil {
		return -1
	}
	born, err := time.Parse("2006-01-02", *p.DateOfBirth)
	if err != nil {
		return -1
	}
	age := now.Year() - born.Year()
	if now.YearDay() < born.YearDay() {
		age--
	}
	return age
}

// WebhookProjection is the flat mapping sent to the external agent.
func (p *Patient) WebhookProjection() map[string]any {
	return map[string]any{
		"patient_id":      p.ID.String(),
		"name":            p.Name,
		"phone":           p.Phone,
		"email":           deref(p.Email),
		"gender":          p.GenderLabelAr(),
		"date_of_birth":   deref(p.DateOfBirth),
		"address":         deref(p.Address),
		"medical_history": deref(p.MedicalHistory),
		"created_at":      p.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":      p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreatePatientRequest is the request body for creating a patient.
type CreatePatientRequest struct {
	Name           string  `json:"name"`
	Phone          string  `json:"phone"`
	Email          *string `json:"email,omitempty"`
	DateOfBirth    *string `json:"date_of_birth,omitempty"`
	Gender         *string `json:"gender,omitempty"`
	Address        *string `json:"address,omitempty"`
	MedicalHistory *string `json:"medical_history,omitempty"`
}

// Normalize validates the request and returns the patient row to insert.
func (r *CreatePatientRequest) Normalize() (*Patient, error) {
	name, err := validate.Name(r.Name)
	if err != nil {
		return nil, err
	}
	phone, err := validate.Phone(r.Phone)
	if err != nil {
		return nil, err
	}

	p := &Patient{
		ID:             uuid.New(),
		Name:           name,
		Phone:          phone,
		Email:          trimPtr(r.Email),
		Address:        trimPtr(r.Address),
		MedicalHistory: trimPtr(r.MedicalHistory),
	}
	if r.Gender != nil && *r.Gender != "" {
		gender, err := validate.Gender(*r.Gender)
		if err != nil {
			return nil, err
		}
		p.Gender = &gender
	}
	if r.DateOfBirth != nil && *r.DateOfBirth != "" {
		dob, err := validate.Date(*r.DateOfBirth)
		if err != nil {
			return nil, err
		}
		p.DateOfBirth = &dob
	}
	return p, nil
}

// UpdatePatientRequest carries a partial update. Nil fields are untouched.
type UpdatePatientRequest struct {
	Name           *string `json:"name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Email          *string `json:"email,omitempty"`
	DateOfBirth    *string `json:"date_of_birth,omitempty"`
	Gender         *string `json:"gender,omitempty"`
	Address        *string `json:"address,omitempty"`
	MedicalHistory *string `json:"medical_history,omitempty"`
}

// Empty reports whether the request supplies nothing to change.
func (r *UpdatePatientRequest) Empty() bool {
	return r.Name == nil && r.Phone == nil && r.Email == nil && r.DateOfBirth == nil &&
		r.Gender == nil && r.Address == nil && r.MedicalHistory == nil
}

// Apply validates each supplied field and mutates p in place.
func (r *UpdatePatientRequest) Apply(p *Patient) error {
	if r.Name != nil {
		name, err := validate.Name(*r.Name)
		if err != nil {
			return err
		}
		p.Name = name
	}
	if r.Phone != nil {
		phone, err := validate.Phone(*r.Phone)
		if err != nil {
			return err
		}
		p.Phone = phone
	}
	if r.Email != nil {
		p.Email = trimPtr(r.Email)
	}
	if r.DateOfBirth != nil {
		if *r.DateOfBirth == "" {
			p.DateOfBirth = nil
		} else {
			dob, err := validate.Date(*r.DateOfBirth)
			if err != nil {
				return err
			}
			p.DateOfBirth = &dob
		}
	}
	if r.Gender != nil {
		if *r.Gender == "" {
			p.Gender = nil
		} else {
			gender, err := validate.Gender(*r.Gender)
			if err != nil {
				return err
			}
			p.Gender = &gender
		}
	}
	if r.Address != nil {
		p.Address = trimPtr(r.Address)
	}
	if r.MedicalHistory != nil {
		p.MedicalHistory = trimPtr(r.MedicalHistory)
	}
	return nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
