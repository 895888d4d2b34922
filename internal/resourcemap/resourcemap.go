// Package resourcemap defines the read-only index of project files the
// Resolver consults by logical id and by path. The indexer that builds it
// (the "Resource Indexer") is an external collaborator and out of scope
// for this module.
package resourcemap

// Kind classifies a resource entry.
type Kind int

const (
	// Source is a normal module file.
	Source Kind = iota
	// ManualMock is a user-authored __mocks__ replacement or JSMock entry.
	ManualMock
	// ProjectConfig is a package manifest (package.json-equivalent).
	ProjectConfig
	// Other is anything else the indexer tracked but the loader ignores.
	Other
)

// ProjectData holds the fields of a ProjectConfig resource the Resolver
// needs: the package's declared name and optional entry point.
type ProjectData struct {
	Name string
	Main string
}

// Resource is one entry of the ResourceMap.
type Resource struct {
	ID              string
	Type            Kind
	Path            string
	Data            ProjectData
	RequiredModules []string
}

// Map is the external, read-only index the Resolver consults. It is safe
// for concurrent use by multiple Loaders (invariant: read-only to the
// core).
type Map interface {
	GetResource(kind Kind, name string) (*Resource, bool)
	GetResourceByPath(path string) (*Resource, bool)
	GetAllResources() []*Resource
	GetAllResourcesByType(kind Kind) []*Resource
}

// memoryMap is a simple in-memory reference implementation of Map, useful
// for tests and small projects that don't need the on-disk cache file the
// real Resource Indexer would produce.
type memoryMap struct {
	byKindName map[Kind]map[string]*Resource
	byPath     map[string]*Resource
	all        []*Resource
}

// NewMemoryMap builds a Map from a flat list of resources.
func NewMemoryMap(resources []*Resource) Map {
	m := &memoryMap{
		byKindName: make(map[Kind]map[string]*Resource),
		byPath:     make(map[string]*Resource),
	}
	for _, r := range resources {
		if m.byKindName[r.Type] == nil {
			m.byKindName[r.Type] = make(map[string]*Resource)
		}
		m.byKindName[r.Type][r.ID] = r
		m.byPath[r.Path] = r
		m.all = append(m.all, r)
	}
	return m
}

func (m *memoryMap) GetResource(kind Kind, name string) (*Resource, bool) {
	byName, ok := m.byKindName[kind]
	if !ok {
		return nil, false
	}
	r, ok := byName[name]
	return r, ok
}

func (m *memoryMap) GetResourceByPath(path string) (*Resource, bool) {
	r, ok := m.byPath[path]
	return r, ok
}

func (m *memoryMap) GetAllResources() []*Resource {
	return m.all
}

func (m *memoryMap) GetAllResourcesByType(kind Kind) []*Resource {
	byName, ok := m.byKindName[kind]
	if !ok {
		return nil
	}
	out := make([]*Resource, 0, len(byName))
	for _, r := range byName {
		out = append(out, r)
	}
	return out
}
