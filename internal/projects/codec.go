package projects

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// entry is one project as written in the descriptor file. Status is a pointer
// so an omitted status can be told apart from an explicit one.
type entry struct {
	Name           string  `yaml:"name" toml:"name"`
	SourceType     string  `yaml:"sourceType" toml:"sourceType"`
	Location       string  `yaml:"location" toml:"location"`
	Branch         string  `yaml:"branch,omitempty" toml:"branch,omitempty"`
	LocalCachePath string  `yaml:"localCachePath,omitempty" toml:"localCachePath,omitempty"`
	Status         *string `yaml:"status,omitempty" toml:"status,omitempty"`
}

type document struct {
	Projects []entry `yaml:"projects" toml:"projects"`
}

// codec reads and edits one descriptor file format.
type codec interface {
	decode(data []byte) ([]entry, error)
	empty() []byte
	setStatus(data []byte, name string, status Status) ([]byte, error)
}

// codecFor picks the codec from the file extension. YAML is the default.
func codecFor(path string) codec {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return tomlCodec{}
	}
	return yamlCodec{}
}

type yamlCodec struct{}

func (yamlCodec) decode(data []byte) ([]entry, error) {
	var doc document
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return doc.Projects, nil
}

func (yamlCodec) empty() []byte {
	return []byte("projects: []\n")
}

// setStatus edits the node tree so comments and key order survive.
func (yamlCodec) setStatus(data []byte, name string, status Status) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("project %q not found in descriptor file", name)
	}

	list := mappingValue(root.Content[0], "projects")
	if list == nil || list.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("project %q not found in descriptor file", name)
	}

	for _, item := range list.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		if n := mappingValue(item, "name"); n == nil || n.Value != name {
			continue
		}
		if v := mappingValue(item, "status"); v != nil {
			v.Kind = yaml.ScalarNode
			v.Tag = "!!str"
			v.Value = string(status)
		} else {
			item.Content = append(item.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "status"},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(status)},
			)
		}

		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&root); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	return nil, fmt.Errorf("project %q not found in descriptor file", name)
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

type tomlCodec struct{}

func (tomlCodec) decode(data []byte) ([]entry, error) {
	var doc document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return doc.Projects, &unknownKeysError{keys: undecoded}
	}
	return doc.Projects, nil
}

func (tomlCodec) empty() []byte {
	return []byte("# [[projects]]\n# name = \"example\"\n# sourceType = \"git\"\n# location = \"https://example.com/example.git\"\n")
}

func (tomlCodec) setStatus(data []byte, name string, status Status) ([]byte, error) {
	var doc document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	found := false
	for i := range doc.Projects {
		if doc.Projects[i].Name == name {
			s := string(status)
			doc.Projects[i].Status = &s
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("project %q not found in descriptor file", name)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unknownKeysError is returned alongside successfully decoded entries when
// the file carries keys the descriptor does not know.
type unknownKeysError struct {
	keys []toml.Key
}

func (e *unknownKeysError) Error() string {
	names := make([]string, len(e.keys))
	for i, k := range e.keys {
		names[i] = k.String()
	}
	return "unknown descriptor keys: " + strings.Join(names, ", ")
}
