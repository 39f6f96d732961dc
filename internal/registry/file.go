package registry

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/carepilot/docintel/internal/model"
)

// LoadSchemaFile reads a schema set from a YAML file. The YAML has a
// top-level "schema" key mirroring model.SchemaSet.
func LoadSchemaFile(path string) (*model.SchemaSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read schema file %s", path)
	}

	var wrapper struct {
		Schema model.SchemaSet `yaml:"schema"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrapf(err, "registry: parse schema file %s", path)
	}

	set := &wrapper.Schema
	if err := Validate(set); err != nil {
		return nil, err
	}
	return set, nil
}

// LoadDir registers every *.yaml / *.yml schema file in dir on top of
// the built-ins.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return eris.Wrapf(err, "registry: read schema dir %s", dir)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !isYAML(name) {
			continue
		}
		set, err := LoadSchemaFile(dir + "/" + name)
		if err != nil {
			return err
		}
		if err := r.Register(set); err != nil {
			return err
		}
	}
	return nil
}

func isYAML(name string) bool {
	if len(name) > 5 && name[len(name)-5:] == ".yaml" {
		return true
	}
	return len(name) > 4 && name[len(name)-4:] == ".yml"
}
