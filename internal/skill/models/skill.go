package models

import id "treasury/pkg/domain"

// Skill is a classification tag recipients can carry. Deprecated skills
// stay in the catalogue but cannot be newly assigned.
type Skill struct {
	ID         id.SkillID `json:"id"`
	Deprecated bool       `json:"deprecated"`
}
