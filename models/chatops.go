package models

// ChatOpsUser is a user record returned by the ChatOps autocomplete API.
// Used by the add-user flow to prefill new user records.
type ChatOpsUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Nickname  string `json:"nickname"`
	Position  string `json:"position"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
