package binary

// Registry holds precompiled helper payloads for the running platform.
// Release builds that bundle helpers provide a platform-tagged file whose
// init registers each payload into DefaultRegistry; every other build
// keeps the registry empty, which EmbeddedAcquirer reports as a distinct
// "no embedded helpers" error rather than silently falling back.
type Registry struct {
	tools map[string][]byte
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string][]byte)}
}

// Register adds a payload for a tool name, replacing any previous one.
func (r *Registry) Register(tool string, payload []byte) {
	r.tools[tool] = payload
}

// Has reports whether a payload exists for the tool.
func (r *Registry) Has(tool string) bool {
	_, ok := r.tools[tool]
	return ok
}

// Bytes returns the payload for a tool.
func (r *Registry) Bytes(tool string) ([]byte, bool) {
	payload, ok := r.tools[tool]
	return payload, ok
}

// Len returns the number of registered payloads.
func (r *Registry) Len() int {
	return len(r.tools)
}

// defaultRegistry is populated at init time by platform-tagged files in
// embedded release builds.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the build's embedded payload table.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// HasEmbeddedBinaries reports whether this build carries embedded helper
// payloads for the running platform.
func HasEmbeddedBinaries() bool {
	return defaultRegistry.Len() > 0
}
