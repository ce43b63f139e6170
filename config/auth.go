package config

// CredentialsConfig holds the account used by the CLI when it has to sign in.
// Both values are optional; commands that need a session fail without them.
type CredentialsConfig struct {
	Email    string `env:"SECUREOPS_EMAIL"`
	Password string `env:"SECUREOPS_PASSWORD"`
}

// Present reports whether both email and password are set.
func (c *CredentialsConfig) Present() bool {
	return c.Email != "" && c.Password != ""
}
