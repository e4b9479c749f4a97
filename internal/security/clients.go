package security

import "crypto/subtle"

const (
	PermSeedRead  = "seed.read"
	PermSeedWrite = "seed.write"
)

type Client struct {
	ID      string
	Secret  string
	Perms   []string
	Enabled bool
}

// Registry is the in-memory set of operator clients, loaded from config.
type Registry struct {
	clients map[string]Client
}

func NewRegistry(clients ...Client) *Registry {
	r := &Registry{clients: make(map[string]Client, len(clients))}
	for _, c := range clients {
		r.clients[c.ID] = c
	}
	return r
}

// Authenticate returns the client when id and secret match an enabled entry.
func (r *Registry) Authenticate(id, secret string) (Client, bool) {
	c, ok := r.clients[id]
	if !ok || !c.Enabled {
		return Client{}, false
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(c.Secret)) != 1 {
		return Client{}, false
	}
	return c, true
}

// Grant narrows the client's perms to the requested scope. An empty scope
// grants everything the client holds; asking for more than that fails.
func (c Client) Grant(scope []string) ([]string, bool) {
	if len(scope) == 0 {
		return c.Perms, true
	}
	held := make(map[string]struct{}, len(c.Perms))
	for _, p := range c.Perms {
		held[p] = struct{}{}
	}
	for _, s := range scope {
		if _, ok := held[s]; !ok {
			return nil, false
		}
	}
	return scope, true
}
