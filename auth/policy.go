package auth

// AdminPolicy decides whether a verified identity carries administrator
// privilege. The production policy is the OR of an email allowlist and the
// oracle's role claim; both checks are flat and non-hierarchical.
type AdminPolicy interface {
	IsAdmin(id *Identity) bool
}

type emailAllowlist map[string]bool

func NewEmailAllowlist(emails ...string) AdminPolicy {
	allow := make(emailAllowlist, len(emails))
	for _, email := range emails {
		if email != "" {
			allow[email] = true
		}
	}
	return allow
}

func (a emailAllowlist) IsAdmin(id *Identity) bool {
	return a[id.Email]
}

// RoleClaim grants administrator privilege when the oracle reported an
// "admin" role.
type RoleClaim struct{}

func (RoleClaim) IsAdmin(id *Identity) bool {
	return id.Role == "admin"
}

type anyOf []AdminPolicy

func AnyOf(policies ...AdminPolicy) AdminPolicy {
	return anyOf(policies)
}

func (p anyOf) IsAdmin(id *Identity) bool {
	for _, policy := range p {
		if policy.IsAdmin(id) {
			return true
		}
	}
	return false
}
