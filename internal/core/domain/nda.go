package domain

import (
	"fmt"
	"strings"
	"time"
)

// NdaViewURLPrefix is the public page an agreement can be opened at.
const NdaViewURLPrefix = "https://ndaify.com/nda/"

// NdaStatus is the lifecycle state of an agreement.
type NdaStatus string

const (
	// NdaStatusPending means the recipient has not acted yet.
	NdaStatusPending NdaStatus = "pending"

	// NdaStatusSigned means the recipient accepted the agreement.
	NdaStatusSigned NdaStatus = "signed"

	// NdaStatusRevoked means the sender withdrew the agreement.
	NdaStatusRevoked NdaStatus = "revoked"

	// NdaStatusDeclined means the recipient declined the agreement.
	NdaStatusDeclined NdaStatus = "declined"
)

// ValidNdaStatuses returns all known statuses.
func ValidNdaStatuses() []NdaStatus {
	return []NdaStatus{NdaStatusPending, NdaStatusSigned, NdaStatusRevoked, NdaStatusDeclined}
}

// ParseNdaStatus parses a status string case-insensitively.
func ParseNdaStatus(s string) (NdaStatus, error) {
	st := NdaStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case NdaStatusPending, NdaStatusSigned, NdaStatusRevoked, NdaStatusDeclined:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Party identifies one side of an agreement.
type Party struct {
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Company  string `json:"company,omitempty"`
}

// NdaMetadata carries the mutable descriptive fields of an agreement.
type NdaMetadata struct {
	Status        NdaStatus `json:"status"`
	NdaTemplateID string    `json:"ndaTemplateId,omitempty"`
	Recipient     Party     `json:"recipient"`
	Sender        Party     `json:"sender"`
	Message       string    `json:"message,omitempty"`
}

// Nda is a snapshot of an agreement as returned by the service.
// It is never mutated locally; refresh it through the API.
type Nda struct {
	NdaID     string      `json:"ndaId"`
	OwnerID   string      `json:"ownerId"`
	Metadata  NdaMetadata `json:"metadata"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// IsPending reports whether the agreement still awaits the recipient.
// Only pending agreements can be resent or revoked.
func (n *Nda) IsPending() bool {
	return n.Metadata.Status == NdaStatusPending
}

// ViewURL returns the public URL of the agreement.
func (n *Nda) ViewURL() string {
	return NdaViewURLPrefix + n.NdaID
}

// FilterNdasByStatus returns the agreements whose status is in statuses.
// An empty status list returns the input unchanged.
func FilterNdasByStatus(ndas []Nda, statuses ...NdaStatus) []Nda {
	if len(statuses) == 0 {
		return ndas
	}
	want := make(map[NdaStatus]struct{}, len(statuses))
	for _, s := range statuses {
		want[s] = struct{}{}
	}
	out := make([]Nda, 0, len(ndas))
	for _, n := range ndas {
		if _, ok := want[n.Metadata.Status]; ok {
			out = append(out, n)
		}
	}
	return out
}

// CreateNdaRequest is the payload for creating an agreement.
type CreateNdaRequest struct {
	Metadata NdaMetadata `json:"metadata"`
}

// NdaStatistics aggregates public counters of the service.
type NdaStatistics struct {
	NdaCount    int64 `json:"ndaCount"`
	SignedCount int64 `json:"signedCount,omitempty"`
}
