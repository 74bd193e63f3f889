// internal/model/recipient.go
package model

// Recipient is one addressable target of a campaign. Attributes holds the
// per-recipient values substituted into message templates, keyed by the
// column names of the source file.
type Recipient struct {
	Phone      string            `json:"phone"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Attr returns the named attribute, or "" when absent.
func (r Recipient) Attr(name string) string {
	return r.Attributes[name]
}
