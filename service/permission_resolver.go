package service

import (
	"slices"

	"engagebot/models"

	log "github.com/sirupsen/logrus"
)

// AdminPolicy lists what grants the admin tier
type AdminPolicy struct {
	RoleIDs     []string
	Permissions int64 // any matching bit grants admin
	UserIDs     []string
}

// PermissionResolver maps a caller to a privilege tier
type PermissionResolver struct {
	policy AdminPolicy
}

// NewPermissionResolver creates a resolver for the given admin policy
func NewPermissionResolver(policy AdminPolicy) *PermissionResolver {
	return &PermissionResolver{policy: policy}
}

// Policy returns the admin policy in use
func (r *PermissionResolver) Policy() AdminPolicy {
	return r.policy
}

// Resolve returns the tier of the caller. The console operator is always
// TierConsole; platform users never exceed TierAdmin. A nil guild (direct
// messages) only escalates explicitly listed users. Lookup failures are
// treated as having no roles and no permissions.
func (r *PermissionResolver) Resolve(caller models.Caller, guild GuildContext) models.PrivilegeTier {
	user, ok := models.AsUser(caller)
	if !ok {
		if models.IsConsole(caller) {
			return models.TierConsole
		}
		return models.TierGeneral
	}

	if slices.Contains(r.policy.UserIDs, user.ID) {
		return models.TierAdmin
	}
	if guild == nil {
		return models.TierGeneral
	}

	if len(r.policy.RoleIDs) > 0 {
		roles, err := guild.MemberRoles(user.ID)
		if err != nil {
			log.WithFields(log.Fields{
				"user_id": user.ID,
				"error":   err,
			}).Warn("Failed to look up member roles")
		}
		for _, role := range roles {
			if slices.Contains(r.policy.RoleIDs, role) {
				return models.TierAdmin
			}
		}
	}

	if r.policy.Permissions != 0 {
		perms, err := guild.MemberPermissions(user.ID)
		if err != nil {
			log.WithFields(log.Fields{
				"user_id": user.ID,
				"error":   err,
			}).Warn("Failed to look up member permissions")
			perms = 0
		}
		if perms&r.policy.Permissions != 0 {
			return models.TierAdmin
		}
	}

	return models.TierGeneral
}
