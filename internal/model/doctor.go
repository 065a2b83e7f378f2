package model

// Doctor is a member of staff who can be matched to a space.
type Doctor struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Specialty          string `json:"specialty"`
	Email              string `json:"email,omitempty"`
	HasDedicatedOffice bool   `json:"hasDedicatedOffice"`
	HasHomeOffice      bool   `json:"hasHomeOffice"`
	OfficeID           string `json:"officeId,omitempty"`
}
