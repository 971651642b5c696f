package registry

// Publisher is the host-wide surface extensions publish services on.
type Publisher interface {
	// Publish registers v under name. The returned func withdraws it.
	Publish(name string, v any) (func(), error)

	// Lookup returns the value published under name.
	Lookup(name string) (any, bool)

	// List returns all published names, sorted.
	List() []string
}
