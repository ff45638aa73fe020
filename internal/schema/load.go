package schema

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/mhartwig22/campuskg/api/schemas"
)

// fileRegistry mirrors the YAML override format. Only the sections present
// in the file are applied; absent sections keep their builtin values.
type fileRegistry struct {
	OntologyNamespace string `mapstructure:"ontology_namespace"`
	ResourceNamespace string `mapstructure:"resource_namespace"`
	Types             []struct {
		Name      string `mapstructure:"name"`
		Parent    string `mapstructure:"parent"`
		Hierarchy bool   `mapstructure:"hierarchy"`
	} `mapstructure:"types"`
	Predicates []struct {
		Name                 string   `mapstructure:"name"`
		Inverse              string   `mapstructure:"inverse"`
		Domain               []string `mapstructure:"domain"`
		Range                []string `mapstructure:"range"`
		PartOfSpecialization bool     `mapstructure:"part_of_specialization"`
	} `mapstructure:"predicates"`
	Attributes []struct {
		Name  string `mapstructure:"name"`
		Range string `mapstructure:"range"`
	} `mapstructure:"attributes"`
}

// Load returns the builtin registry with overrides from the given YAML file
// applied on top. An empty path returns the builtin registry unchanged.
// The returned registry is already validated.
func Load(path string) (*Registry, error) {
	r := Builtin()
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("schema registry: reading %s: %w", path, err)
		}
		var f fileRegistry
		if err := v.Unmarshal(&f); err != nil {
			return nil, fmt.Errorf("schema registry: parsing %s: %w", path, err)
		}
		applyOverrides(r, f)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func applyOverrides(r *Registry, f fileRegistry) {
	if f.OntologyNamespace != "" {
		r.OntologyNS = f.OntologyNamespace
	}
	if f.ResourceNamespace != "" {
		r.ResourceNS = f.ResourceNamespace
	}
	for _, t := range f.Types {
		r.types[schemas.EntityType(t.Name)] = TypeInfo{
			Name:      schemas.EntityType(t.Name),
			Parent:    schemas.EntityType(t.Parent),
			Hierarchy: t.Hierarchy,
		}
	}
	for _, p := range f.Predicates {
		pi := PredicateInfo{
			Name:                 schemas.Predicate(p.Name),
			Inverse:              schemas.Predicate(p.Inverse),
			PartOfSpecialization: p.PartOfSpecialization,
		}
		for _, d := range p.Domain {
			pi.Domain = append(pi.Domain, schemas.EntityType(d))
		}
		for _, rg := range p.Range {
			pi.Range = append(pi.Range, schemas.EntityType(rg))
		}
		r.predicates[pi.Name] = pi
	}
	for _, a := range f.Attributes {
		r.attributes[a.Name] = AttributeInfo{Name: a.Name, Range: AttrRange(a.Range)}
	}
}
