package models

import (
	"time"
)

// Role identifies a user's permission level
type Role int

const (
	RoleMember Role = 0
	RoleAdmin  Role = 1
	RoleSystem Role = 2
)

// User represents one member of the drinking group
type User struct {
	ID               string    `db:"id" json:"id"`
	TagID            string    `db:"tag_id" json:"tag_id"`
	ChatOpsChannelID string    `db:"chatops_channel_id" json:"chatops_channel_id"`
	UserName         string    `db:"user_name" json:"user_name"`
	Role             Role      `db:"role" json:"role"`
	Email            string    `db:"email" json:"email"`
	AvatarURL        *string   `db:"avatar_url" json:"avatar_url"`
	LastPostID       *string   `db:"last_post_id" json:"last_post_id"` // open reminder thread; nil when no reminder is outstanding
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// OwnerKeys returns every identifier a bill's user_id column may have been
// recorded under for this user. Bills were historically keyed by user id,
// tag id, or ChatOps channel id.
func (u *User) OwnerKeys() []string {
	keys := []string{u.ID}
	if u.TagID != "" {
		keys = append(keys, u.TagID)
	}
	if u.ChatOpsChannelID != "" {
		keys = append(keys, u.ChatOpsChannelID)
	}
	return keys
}
