package provider

import (
	"fmt"
	"time"
)

// PullRequest represents a pull request/merge request.
type PullRequest struct {
	Number  int
	State   string // open, closed, merged
	HeadSHA string
	HeadRef string

	// HeadRepoFullName is owner/repo of the repository the head branch lives
	// in. It differs from the base repository for forks.
	HeadRepoFullName string
}

// Comment represents a comment on a pull request.
type Comment struct {
	ID        int64
	Body      string
	Author    string
	CreatedAt time.Time
}

// Reaction is a provider-neutral comment reaction.
type Reaction string

const (
	ReactionEyes     Reaction = "eyes"
	ReactionRocket   Reaction = "rocket"
	ReactionConfused Reaction = "confused"
)

// Permission is a repository permission level, ordered from least to most.
type Permission int

const (
	PermissionNone Permission = iota
	PermissionRead
	PermissionTriage
	PermissionWrite
	PermissionMaintain
	PermissionAdmin
)

var permissionNames = []string{"none", "read", "triage", "write", "maintain", "admin"}

func (p Permission) String() string {
	if p < 0 || int(p) >= len(permissionNames) {
		return fmt.Sprintf("Permission(%d)", int(p))
	}
	return permissionNames[p]
}

// Allows reports whether p satisfies the required level.
func (p Permission) Allows(required Permission) bool {
	return p >= required
}

// ParsePermission converts a permission name to a Permission.
func ParsePermission(s string) (Permission, error) {
	for i, name := range permissionNames {
		if name == s {
			return Permission(i), nil
		}
	}
	return PermissionNone, fmt.Errorf("unknown permission %q", s)
}
