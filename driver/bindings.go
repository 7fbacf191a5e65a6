package driver

import "github.com/nikshitha/signup-harness/browser"

// FieldBinding maps a logical field name onto a locator on the live page.
// It holds no element and is resolved again on every use.
type FieldBinding struct {
	Name     string
	Locator  browser.Locator
	Optional bool
}

// Bindings indexes field bindings by logical name
type Bindings map[string]FieldBinding

// Field binds name to the element carrying the same id
func Field(name string) FieldBinding {
	return FieldBinding{Name: name, Locator: browser.ID(name)}
}

// OptionalField binds name to the element carrying the same id. Filling it
// with an empty value is skipped.
func OptionalField(name string) FieldBinding {
	return FieldBinding{Name: name, Locator: browser.ID(name), Optional: true}
}

// NewBindings indexes fields by name
func NewBindings(fields ...FieldBinding) Bindings {
	b := make(Bindings, len(fields))
	for _, f := range fields {
		b[f.Name] = f
	}
	return b
}

// Merge returns a new set holding the bindings of b and others, later sets winning
func (b Bindings) Merge(others ...Bindings) Bindings {
	merged := make(Bindings, len(b))
	for k, v := range b {
		merged[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			merged[k] = v
		}
	}
	return merged
}

// RegistrationFields is the registration form, in fill order
var RegistrationFields = []FieldBinding{
	Field("companyName"),
	Field("email"),
	Field("password"),
	Field("confirmPassword"),
	Field("siteName"),
	Field("companyAddress"),
	OptionalField("companyAddress2"),
	Field("companyCity"),
	Field("companyRegionCode"),
	Field("companyZip"),
	Field("companyPhone"),
	Field("firstName"),
	Field("lastName"),
	Field("userAddress"),
	OptionalField("userAddress2"),
	Field("userCity"),
	Field("userRegionCode"),
	Field("userZip"),
	Field("userPhone"),
	Field("agreeTerms"),
}

// ContactFields is the contact form
var ContactFields = []FieldBinding{
	Field("contactName"),
	Field("contactEmail"),
	Field("contactSubject"),
	Field("contactMessage"),
	Field("contactSubmitBtn"),
}

// DefaultBindings covers every form the harness drives
func DefaultBindings() Bindings {
	return NewBindings(RegistrationFields...).Merge(NewBindings(ContactFields...))
}
