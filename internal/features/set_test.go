package features

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestSet_OrderAndDedup(t *testing.T) {
	s := NewSet()
	s.Add(URI, "b")
	s.Add(DataRaw, "x")
	s.Add(URI, "a")
	s.Add(URI, "b")

	assert.Equal(t, []string{URI, DataRaw}, s.Names())
	assert.Equal(t, []string{"b", "a"}, s.Values(URI))
	assert.Equal(t, 3, s.Len())
	assert.Nil(t, s.Values(Email))
}

func TestSet_CopiesAreIndependent(t *testing.T) {
	s := NewSet()
	s.Add(URI, "a")

	vals := s.Values(URI)
	vals[0] = "changed"
	m := toMap(s)
	m[URI][0] = "changed"

	assert.Equal(t, []string{"a"}, s.Values(URI))
}

func TestSet_MarshalJSON(t *testing.T) {
	s := NewSet()
	s.Add(URI, "https://z.example")
	s.Add(DataRaw, "payload")

	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"qr_code_uri":["https://z.example"],"qr_code_data_raw":["payload"]}`, string(out))

	empty, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(NewSet())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(empty))
}

func TestSet_MarshalYAML(t *testing.T) {
	s := NewSet()
	s.Add(URI, "https://z.example")
	s.Add(DataRaw, "payload")

	out, err := yaml.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, "qr_code_uri:\n- https://z.example\nqr_code_data_raw:\n- payload\n", string(out))
}

// toMap flattens a set for comparisons.
func toMap(s *Set) map[string][]string {
	out := make(map[string][]string, len(s.Names()))
	for _, name := range s.Names() {
		out[name] = s.Values(name)
	}
	return out
}
