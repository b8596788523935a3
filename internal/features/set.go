package features

import (
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v2"
)

// Set is an insertion ordered multimap of feature name to distinct values.
type Set struct {
	names  []string
	values map[string][]string
	seen   map[string]map[string]bool
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{
		values: make(map[string][]string),
		seen:   make(map[string]map[string]bool),
	}
}

// Add records value under name unless it is already present.
func (s *Set) Add(name, value string) {
	if s.seen[name] == nil {
		s.seen[name] = make(map[string]bool)
		s.names = append(s.names, name)
	}
	if s.seen[name][value] {
		return
	}
	s.seen[name][value] = true
	s.values[name] = append(s.values[name], value)
}

// Names returns feature names in first-seen order.
func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// Values returns the values recorded for name.
func (s *Set) Values(name string) []string {
	return append([]string(nil), s.values[name]...)
}

// Len is the number of distinct (name, value) pairs.
func (s *Set) Len() int {
	n := 0
	for _, v := range s.values {
		n += len(v)
	}
	return n
}

// MarshalYAML keeps first-seen name order in YAML output.
func (s *Set) MarshalYAML() (interface{}, error) {
	out := make(yaml.MapSlice, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, yaml.MapItem{Key: name, Value: s.values[name]})
	}
	return out, nil
}

// MarshalJSON keeps first-seen name order in JSON output.
func (s *Set) MarshalJSON() ([]byte, error) {
	api := jsoniter.ConfigCompatibleWithStandardLibrary
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, name := range s.names {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(name)
		stream.WriteVal(s.values[name])
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}
