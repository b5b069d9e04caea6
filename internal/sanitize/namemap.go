package sanitize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"sublingo/internal/services"
)

// Pair is a single source-name to target-name substitution.
type Pair struct {
	Source string
	Target string
}

// NameMap is an ordered list of substitutions. Pairs are applied in the order
// they were declared; when sources overlap as substrings the earlier pair wins.
type NameMap struct {
	pairs []Pair
}

// NewNameMap builds a map from pairs, dropping empty sources. A later pair with
// a duplicate source replaces the earlier target but keeps its position.
func NewNameMap(pairs ...Pair) NameMap {
	var m NameMap
	for _, p := range pairs {
		m.Set(p.Source, p.Target)
	}
	return m
}

// Set adds or updates a substitution.
func (m *NameMap) Set(source, target string) {
	if source == "" {
		return
	}
	for i := range m.pairs {
		if m.pairs[i].Source == source {
			m.pairs[i].Target = target
			return
		}
	}
	m.pairs = append(m.pairs, Pair{Source: source, Target: target})
}

// Pairs returns a copy of the substitutions in declared order.
func (m NameMap) Pairs() []Pair {
	return append([]Pair(nil), m.pairs...)
}

// Len reports the number of substitutions.
func (m NameMap) Len() int { return len(m.pairs) }

// ApplyNameMap performs literal replacement for every pair in declared order.
func ApplyNameMap(line string, m NameMap) string {
	for _, p := range m.pairs {
		line = strings.ReplaceAll(line, p.Source, p.Target)
	}
	return line
}

// MarshalJSON renders the map as a JSON object with keys in declared order.
func (m NameMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range m.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(p.Source)
		if err != nil {
			return nil, err
		}
		val, err := marshalNoEscape(p.Target)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping key order.
func (m *NameMap) UnmarshalJSON(data []byte) error {
	m.pairs = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("name map: expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("name map: unexpected key %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("name map: value for %q: %w", key, err)
		}
		m.Set(key, value)
	}
	_, err = dec.Token()
	return err
}

// UnmarshalYAML reads a YAML mapping, keeping key order.
func (m *NameMap) UnmarshalYAML(node *yaml.Node) error {
	m.pairs = nil
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind == 0 || node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("name map: line %d: expected mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("name map: line %d: value for %q must be a string", value.Line, key.Value)
		}
		m.Set(key.Value, value.Value)
	}
	return nil
}

// LoadNameMap reads a name map file. Files ending in .json are parsed as JSON;
// anything else is parsed as YAML.
func LoadNameMap(path string) (NameMap, error) {
	var m NameMap
	data, err := os.ReadFile(path)
	if err != nil {
		return m, services.Wrap(services.ErrConfiguration, "names", "read", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &m)
	default:
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return NameMap{}, services.Wrap(services.ErrConfiguration, "names", "parse", path, err)
	}
	return m, nil
}

func marshalNoEscape(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
