package orders

// Scope is the cache namespace an order list lives under: either the global
// dispatcher view, or a (team, owner) pair for team-restricted views. Team
// orders carry a created_by owner key; the global view sees everything.
type Scope struct {
	Team  string `json:"team,omitempty"`
	Owner string `json:"owner,omitempty"`
}

func GlobalScope() Scope {
	return Scope{}
}

func TeamScope(team, owner string) Scope {
	return Scope{Team: team, Owner: owner}
}

func (s Scope) Global() bool {
	return s.Team == ""
}

// Owns reports whether an order belongs to this scope's viewer. The global
// dispatcher scope owns every order; a team scope only owns orders created
// by its owner.
func (s Scope) Owns(o *Order) bool {
	if o == nil {
		return false
	}
	if s.Global() {
		return true
	}
	return o.CreatedBy == s.Owner
}

func (s Scope) String() string {
	if s.Global() {
		return "global"
	}
	return s.Team + "/" + s.Owner
}
