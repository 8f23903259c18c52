package config

import (
	"fmt"
	"sort"

	"gopkg.in/ini.v1"
)

// Section is one named group of flat string key-value pairs - the
// generic shape pkg/service.StaticConfig marshals itself into before
// persisting, so this package never needs to know about service,
// pattern or port types (: "static config file" is
// a plain, human-editable, structured text file).
type Section struct {
	Name string
	Keys map[string]string
}

// PersistStatic writes an ordered list of sections to path as a single
// ini-formatted static config file. A service's create protocol calls
// this exactly once, atomically via a temp-file-then-rename in the
// caller (pkg/service), matching the teacher's own EDS-via-ini
// read-then-atomic-write discipline.
func PersistStatic(path string, sections []Section) error {
	file := ini.Empty()
	for _, sec := range sections {
		s, err := file.NewSection(sec.Name)
		if err != nil {
			return fmt.Errorf("config: persist static %s: new section %s: %w", path, sec.Name, err)
		}
		keys := make([]string, 0, len(sec.Keys))
		for k := range sec.Keys {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, err := s.NewKey(k, sec.Keys[k]); err != nil {
				return fmt.Errorf("config: persist static %s: key %s: %w", path, k, err)
			}
		}
	}
	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("config: persist static %s: %w", path, err)
	}
	return nil
}

// LoadStatic reads every section back out of path. Section order in the
// returned slice follows file order exactly as ini.v1 preserves it,
// since some static config fields (PDO-style ordered lists do not apply
// here, but section order still matters for deterministic hashing of
// the file's own byte content in tests).
func LoadStatic(path string) ([]Section, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: load static %s: %w", path, err)
	}
	var sections []Section
	for _, s := range file.Sections() {
		if s.Name() == ini.DefaultSection && len(s.Keys()) == 0 {
			continue
		}
		keys := map[string]string{}
		for _, k := range s.Keys() {
			keys[k.Name()] = k.Value()
		}
		sections = append(sections, Section{Name: s.Name(), Keys: keys})
	}
	return sections, nil
}
