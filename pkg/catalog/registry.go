package catalog

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

/*
Entry describes one registered specialist agent: its logical name, the base
URL its A2A endpoint lives on, and the skills it declares.  Entries are
immutable after the registry is built.
*/
type Entry struct {
	Name        string
	BaseURL     string
	Description string
	Skills      []string
}

/*
Registry is the static name → agent mapping the router consults.  It is
read-only after construction and therefore safe for concurrent reads
without locking.
*/
type Registry struct {
	entries     map[string]Entry
	defaultName string
}

// New builds a registry.  The default agent must be among the entries:
// the routing fallback depends on it always resolving.
func New(defaultName string, entries ...Entry) (*Registry, error) {
	registry := &Registry{
		entries:     make(map[string]Entry, len(entries)),
		defaultName: defaultName,
	}

	for _, entry := range entries {
		log.Info("registering agent", "name", entry.Name, "url", entry.BaseURL)
		registry.entries[entry.Name] = entry
	}

	if _, ok := registry.entries[defaultName]; !ok {
		return nil, fmt.Errorf("default agent %q is not registered", defaultName)
	}

	return registry, nil
}

// FromConfig loads the registry from the viper keys under agents.* plus
// router.default_agent.
func FromConfig() (*Registry, error) {
	v := viper.GetViper()

	var entries []Entry

	for key := range v.GetStringMap("agents") {
		entries = append(entries, Entry{
			Name:        v.GetString(fmt.Sprintf("agents.%s.name", key)),
			BaseURL:     v.GetString(fmt.Sprintf("agents.%s.url", key)),
			Description: v.GetString(fmt.Sprintf("agents.%s.description", key)),
			Skills:      v.GetStringSlice(fmt.Sprintf("agents.%s.skills", key)),
		})
	}

	return New(v.GetString("router.default_agent"), entries...)
}

// Resolve looks an agent up by name.
func (registry *Registry) Resolve(name string) (Entry, error) {
	entry, ok := registry.entries[name]

	if !ok {
		return Entry{}, &NotFoundError{Agent: name}
	}

	return entry, nil
}

// Default returns the configured fallback agent.
func (registry *Registry) Default() Entry {
	return registry.entries[registry.defaultName]
}

// Entries returns all registered agents sorted by name, giving the routing
// prompt a stable ordering.
func (registry *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(registry.entries))

	for _, entry := range registry.entries {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return entries
}
