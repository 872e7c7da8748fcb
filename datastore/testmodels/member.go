package testmodels

import (
	"github.com/go-openapi/strfmt"
	"github.com/suparena/docrepo/storagemodels"
)

// Member status values
const (
	StatusPassive   = 0
	StatusAvailable = 1
)

type Member struct {
	storagemodels.Resource

	// Display title of the member.
	Title string `json:"Title"`

	// Login name.
	UserName string `json:"UserName"`

	// Password hash.
	Password string `json:"Password,omitempty"`

	// Member status, see StatusAvailable.
	Status int `json:"Status"`

	// Contact email.
	// Format: email
	Email strfmt.Email `json:"Email"`

	// Timestamp when the member signed up.
	// Format: date-time
	CreatedAt strfmt.DateTime `json:"CreatedAt"`
}
