package message

import (
	"fmt"
	"strings"
)

// Address is a postal address on a contact card.
type Address struct {
	Street      string `json:"street,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Type        string `json:"type,omitempty"`
}

type Email struct {
	Email string `json:"email"`
	Type  string `json:"type,omitempty"`
}

// Name holds the contact name. FormattedName is mandatory.
type Name struct {
	FormattedName string `json:"formatted_name"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	MiddleName    string `json:"middle_name,omitempty"`
	Suffix        string `json:"suffix,omitempty"`
	Prefix        string `json:"prefix,omitempty"`
}

type Org struct {
	Company    string `json:"company,omitempty"`
	Department string `json:"department,omitempty"`
	Title      string `json:"title,omitempty"`
}

type Phone struct {
	Phone string `json:"phone,omitempty"`
	Type  string `json:"type,omitempty"`
	WaID  string `json:"wa_id,omitempty"`
}

type URL struct {
	URL  string `json:"url,omitempty"`
	Type string `json:"type,omitempty"`
}

// Contact is one contact card.
type Contact struct {
	Name      Name      `json:"name"`
	Addresses []Address `json:"addresses,omitempty"`
	Birthday  string    `json:"birthday,omitempty"`
	Emails    []Email   `json:"emails,omitempty"`
	Org       *Org      `json:"org,omitempty"`
	Phones    []Phone   `json:"phones,omitempty"`
	URLs      []URL     `json:"urls,omitempty"`
}

func (c Contact) validate() error {
	if strings.TrimSpace(c.Name.FormattedName) == "" {
		return required("name.formatted_name")
	}
	for idx, e := range c.Emails {
		if strings.TrimSpace(e.Email) == "" {
			return required(fmt.Sprintf("emails[%d].email", idx))
		}
	}
	return nil
}
