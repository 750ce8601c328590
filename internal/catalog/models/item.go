// Package models defines the catalog item, the reference entity managed by
// the lifecycle and enforcement machinery.
package models

import (
	"strings"

	"custos/pkg/lifecycle"

	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	pstrings "custos/pkg/platform/strings"
)

const (
	maxNameLength  = 120
	maxNotesLength = 4000
	maxTags        = 16
)

// Item is a catalog entry. It embeds the lifecycle record plus attribution
// and ownership, so the enforcement policy manages its bookkeeping fields and
// application code only touches Name, Notes, and Tags.
type Item struct {
	lifecycle.Record
	lifecycle.Attribution
	lifecycle.Ownership

	Name  string   `json:"name"`
	Notes string   `json:"notes,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// NewItem builds an active item with a fresh identity. Timestamps and
// attribution are left zero for the enforcement policy to stamp at commit.
func NewItem(name, notes string, tags []string) (*Item, error) {
	item := &Item{
		Record: lifecycle.NewRecord(id.NewEntityID()),
		Name:   strings.TrimSpace(name),
		Notes:  strings.TrimSpace(notes),
		Tags:   normalizeTags(tags),
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate checks the caller-controlled fields. Lifecycle fields are managed
// by the policy and never validated here.
func (i *Item) Validate() error {
	fields := make(map[string][]string)

	if i.Name == "" {
		fields["name"] = append(fields["name"], "must not be empty")
	}
	if len(i.Name) > maxNameLength {
		fields["name"] = append(fields["name"], "must be at most 120 characters")
	}
	if len(i.Notes) > maxNotesLength {
		fields["notes"] = append(fields["notes"], "must be at most 4000 characters")
	}
	if len(i.Tags) > maxTags {
		fields["tags"] = append(fields["tags"], "must contain at most 16 tags")
	}
	for _, tag := range i.Tags {
		if tag == "" {
			fields["tags"] = append(fields["tags"], "must not contain empty tags")
			break
		}
	}

	if len(fields) > 0 {
		return dErrors.NewValidation(fields)
	}
	return nil
}

// NormalizeTags cleans the tag list the same way NewItem does. Callers
// replacing Tags wholesale run it before Validate.
func (i *Item) NormalizeTags() {
	i.Tags = normalizeTags(i.Tags)
}

// Clone returns a deep copy so stores can hand out snapshots without
// exposing their internal state to callers.
func (i *Item) Clone() *Item {
	clone := *i
	if i.Tags != nil {
		clone.Tags = append([]string(nil), i.Tags...)
	}
	if i.CreatedBy != nil {
		createdBy := *i.CreatedBy
		clone.CreatedBy = &createdBy
	}
	if i.UpdatedBy != nil {
		updatedBy := *i.UpdatedBy
		clone.UpdatedBy = &updatedBy
	}
	if i.OwnerID != nil {
		ownerID := *i.OwnerID
		clone.OwnerID = &ownerID
	}
	return &clone
}

func normalizeTags(tags []string) []string {
	cleaned := pstrings.DedupeAndTrim(tags)
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}
