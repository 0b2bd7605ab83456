package connection

// Credential is the authentication value attached to a request.
//
// It is either a real token, the NoSession sentinel used for public endpoints
// (sent as an empty Authorization header), or the zero value, which is falsy
// and fails with InvalidSession before any network I/O.
type Credential struct {
	token     string
	anonymous bool
}

// NoSession marks a request to a public endpoint.
var NoSession = Credential{anonymous: true}

// Token wraps a stored API key. An empty key yields a falsy credential.
func Token(key string) Credential {
	return Credential{token: key}
}

// Valid reports whether the credential may be sent.
func (c Credential) Valid() bool {
	return c.anonymous || c.token != ""
}

// IsNoSession reports whether c is the public-endpoint sentinel.
func (c Credential) IsNoSession() bool {
	return c.anonymous
}

// Authorization returns the Authorization header value.
func (c Credential) Authorization() string {
	if c.anonymous || c.token == "" {
		return ""
	}
	return AuthScheme + " " + c.token
}

// String never reveals the token.
func (c Credential) String() string {
	switch {
	case c.anonymous:
		return "no-session"
	case c.token == "":
		return "missing"
	default:
		return "api-key"
	}
}
