package domain

// CredentialEntry is the proof-of-identity record for one email. It is kept
// apart from Principal: the profile is what a session exposes, the entry is
// only ever read by the credential validator.
type CredentialEntry struct {
	Email  string `yaml:"email"`
	Secret string `yaml:"password"`
	Role   Role   `yaml:"role"`
}
