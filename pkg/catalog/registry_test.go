package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testEntries() []Entry {
	return []Entry{
		{Name: "medgemma", BaseURL: "http://localhost:9101", Description: "medical q&a"},
		{Name: "clinical", BaseURL: "http://localhost:9102", Description: "clinical research"},
	}
}

func TestNewRequiresRegisteredDefault(t *testing.T) {
	registry, err := New("nonexistent", testEntries()...)
	assert.Error(t, err)
	assert.Nil(t, registry)
}

func TestResolve(t *testing.T) {
	registry, err := New("medgemma", testEntries()...)
	assert.NoError(t, err)

	entry, err := registry.Resolve("clinical")
	assert.NoError(t, err)
	assert.Equal(t, "http://localhost:9102", entry.BaseURL)
}

func TestResolveUnknownAgent(t *testing.T) {
	registry, _ := New("medgemma", testEntries()...)

	_, err := registry.Resolve("radiology")
	assert.Error(t, err)

	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, "radiology", notFound.Agent)
}

func TestDefault(t *testing.T) {
	registry, _ := New("medgemma", testEntries()...)
	assert.Equal(t, "medgemma", registry.Default().Name)
}

func TestEntriesSortedByName(t *testing.T) {
	registry, _ := New("medgemma", testEntries()...)

	entries := registry.Entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, "clinical", entries[0].Name)
	assert.Equal(t, "medgemma", entries[1].Name)
}
