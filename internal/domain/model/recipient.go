package model

import "strings"

// RecipientSource records which resolution step produced a recipient.
type RecipientSource string

const (
	// RecipientSourceOverride is the static legacy mirror table.
	RecipientSourceOverride RecipientSource = "override"
	// RecipientSourceDocument is a per-repository configuration document.
	RecipientSourceDocument RecipientSource = "document"
)

// Recipient is the set of addresses that receive notifications for a repository.
type Recipient struct {
	Addresses []string        `json:"addresses"`
	Source    RecipientSource `json:"source"`
}

// Empty reports whether the recipient carries no usable address.
func (r Recipient) Empty() bool {
	for _, a := range r.Addresses {
		if strings.TrimSpace(a) != "" {
			return false
		}
	}
	return true
}

// String joins the addresses for logging.
func (r Recipient) String() string {
	return strings.Join(r.Addresses, ", ")
}
