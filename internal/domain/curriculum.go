package domain

import (
	"strings"
	"time"
)

// ModuleStatus is the derived gating state of a curriculum module.
type ModuleStatus string

const (
	ModuleCompleted ModuleStatus = "completed"
	ModuleActive    ModuleStatus = "active"
	ModuleLocked    ModuleStatus = "locked"
)

// Module is one curriculum step: an ordered group of concepts.
type Module struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	ConceptIDs    []string          `json:"conceptIds"`
	ConceptLabels map[string]string `json:"conceptLabels,omitempty"`
}

// Curriculum is the ordered module sequence of one knowledge base. Module
// order is fixed once saved and never re-sorted.
type Curriculum struct {
	KnowledgeBaseID string    `json:"kbId"`
	Title           string    `json:"title,omitempty"`
	Modules         []Module  `json:"modules"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Validate checks identifiers and module uniqueness.
func (c *Curriculum) Validate() error {
	if strings.TrimSpace(c.KnowledgeBaseID) == "" {
		return NewValidationError("kbId", "is required", ErrInvalidID)
	}
	seen := make(map[string]struct{}, len(c.Modules))
	for _, m := range c.Modules {
		if strings.TrimSpace(m.ID) == "" {
			return NewValidationError("modules.id", "is required", ErrInvalidID)
		}
		if _, dup := seen[m.ID]; dup {
			return NewValidationError("modules.id", "must be unique", nil)
		}
		seen[m.ID] = struct{}{}
		for _, id := range m.ConceptIDs {
			if err := ValidateConceptID(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// ConceptIDs returns every concept in curriculum order, without duplicates.
func (c *Curriculum) ConceptIDs() []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, m := range c.Modules {
		for _, id := range m.ConceptIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
