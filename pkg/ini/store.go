package ini

import "sort"

// Store holds parsed configuration values grouped by section. Keys that
// appear before any section header live under the default section, the
// empty string. A Store is not safe for concurrent mutation; parse first,
// then share it read-only.
type Store struct {
	sections map[string]map[string]string
}

// Entry is one (section, key, value) triple from a dump
type Entry struct {
	Section string
	Key     string
	Value   string
}

// NewStore creates a new empty store
func NewStore() *Store {
	return &Store{
		sections: make(map[string]map[string]string),
	}
}

// Section gets or creates the named section's key mapping
func (s *Store) Section(name string) map[string]string {
	if s.sections == nil {
		s.sections = make(map[string]map[string]string)
	}
	if s.sections[name] == nil {
		s.sections[name] = make(map[string]string)
	}
	return s.sections[name]
}

// Set stores a value, overwriting any previous value for the key
func (s *Store) Set(section, key, value string) {
	s.Section(section)[key] = value
}

// Get returns the value for the key, or the empty string when the section
// or key is absent. Accessing a missing section creates it empty.
func (s *Store) Get(section, key string) string {
	return s.Section(section)[key]
}

// Lookup returns the value for the key and whether it is present,
// without creating anything
func (s *Store) Lookup(section, key string) (string, bool) {
	sec, ok := s.sections[section]
	if !ok {
		return "", false
	}
	value, ok := sec[key]
	return value, ok
}

// Clear resets the store to empty
func (s *Store) Clear() {
	s.sections = make(map[string]map[string]string)
}

// Len returns the total number of keys across all sections
func (s *Store) Len() int {
	n := 0
	for _, sec := range s.sections {
		n += len(sec)
	}
	return n
}

// Sections returns all section names in sorted order
func (s *Store) Sections() []string {
	names := make([]string, 0, len(s.sections))
	for name := range s.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Keys returns the section's key names in sorted order. A missing
// section yields an empty slice.
func (s *Store) Keys(section string) []string {
	sec, ok := s.sections[section]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(sec))
	for key := range sec {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Dump returns every entry in the store, ordered by section then key
func (s *Store) Dump() []Entry {
	entries := make([]Entry, 0, s.Len())
	for _, section := range s.Sections() {
		sec := s.sections[section]
		for _, key := range s.Keys(section) {
			entries = append(entries, Entry{
				Section: section,
				Key:     key,
				Value:   sec[key],
			})
		}
	}
	return entries
}
