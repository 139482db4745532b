package admin

import (
	"strings"

	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
)

type AddSkillRequest struct {
	SkillID uint64 `json:"skill_id"`
}

func (r *AddSkillRequest) Validate() error {
	if r.SkillID == 0 {
		return dErrors.New(dErrors.CodeValidation, "skill_id must be positive")
	}
	return nil
}

func (r *AddSkillRequest) ParsedSkillID() id.SkillID { return id.SkillID(r.SkillID) }

type RevokeTokenRequest struct {
	JTI string `json:"jti"`
}

func (r *RevokeTokenRequest) Validate() error {
	r.JTI = strings.TrimSpace(r.JTI)
	if r.JTI == "" {
		return dErrors.New(dErrors.CodeValidation, "jti is required")
	}
	return nil
}
