package domain

import (
	"fmt"
	"strings"
)

// TemplateID addresses an agreement template stored in a repository.
type TemplateID struct {
	Owner string
	Repo  string
	Ref   string
	Path  string
}

// ParseTemplateID splits "owner/repo/ref/path". Path takes the remainder
// and may itself contain slashes.
func ParseTemplateID(id string) (TemplateID, error) {
	parts := strings.SplitN(strings.Trim(id, "/"), "/", 4)
	if len(parts) != 4 {
		return TemplateID{}, fmt.Errorf("%w: %q", ErrInvalidTemplateID, id)
	}
	for _, p := range parts {
		if p == "" {
			return TemplateID{}, fmt.Errorf("%w: %q", ErrInvalidTemplateID, id)
		}
	}
	return TemplateID{Owner: parts[0], Repo: parts[1], Ref: parts[2], Path: parts[3]}, nil
}

// String returns the slash-joined form.
func (t TemplateID) String() string {
	return t.Owner + "/" + t.Repo + "/" + t.Ref + "/" + t.Path
}

// NdaTemplate is a rendered template.
type NdaTemplate struct {
	NdaTemplateID string `json:"ndaTemplateId"`
	Data          string `json:"data"`
}
