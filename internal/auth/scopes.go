package auth

// Known OAuth scopes used by the backend.
const (
	ScopeTaskflowRead  = "taskflow:read"
	ScopeTaskflowWrite = "taskflow:write"
)

// DefaultScopes is the scope set granted to first-party sessions.
var DefaultScopes = []string{ScopeTaskflowRead, ScopeTaskflowWrite}
