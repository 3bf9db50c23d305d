package aprov

// Static implements the 'Provider' interface and always returns static credentials/information.
//
// NOTE: Every node in a cluster being formed shares the same admin credentials, so this is the only provider required.
type Static struct {
	UserAgent, Username, Password string
}

var _ Provider = (*Static)(nil)

func (s *Static) GetCredentials(_ string) (string, string) {
	return s.Username, s.Password
}

func (s *Static) GetUserAgent() string {
	return s.UserAgent
}

// Valid returns a boolean indicating whether both a username and password have been supplied.
func (s *Static) Valid() bool {
	return s.Username != "" && s.Password != ""
}
