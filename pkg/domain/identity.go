package domain

// Identity carries the user details the host already knows. They act as
// defaults for the identity gap-fill: a field the user has typed a value
// for always wins over the identity default.
type Identity struct {
	Email    string `json:"email" mapstructure:"email"`
	Name     string `json:"name" mapstructure:"name"`
	Username string `json:"username" mapstructure:"username"`
}

// Complete reports whether every identity field is known.
func (i Identity) Complete() bool {
	return i.Email != "" && i.Name != "" && i.Username != ""
}
