package dbctx

import "gopkg.in/yaml.v3"

// Snapshot is a serializable summary of a finished build.
type Snapshot struct {
	Type        string           `yaml:"type"`
	Base        string           `yaml:"base"`
	Constructor *CtorSnapshot    `yaml:"constructor"`
	Members     []MemberSnapshot `yaml:"members,omitempty"`
	Models      []ModelSnapshot  `yaml:"models,omitempty"`
	Tree        *NodeSnapshot    `yaml:"tree,omitempty"`
}

// CtorSnapshot represents the generated constructor.
type CtorSnapshot struct {
	Name    string   `yaml:"name"`
	Params  []Param  `yaml:"params"`
	Forward []string `yaml:"forward"`
}

// MemberSnapshot represents a generated member.
type MemberSnapshot struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
}

// ModelSnapshot represents a generated model.
type ModelSnapshot struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	Fields   int    `yaml:"fields,omitempty"`
	Values   int    `yaml:"values,omitempty"`
}

// NodeSnapshot represents an explorer item.
type NodeSnapshot struct {
	Text     string          `yaml:"text"`
	Kind     string          `yaml:"kind"`
	Icon     string          `yaml:"icon,omitempty"`
	Member   string          `yaml:"member,omitempty"`
	Children []*NodeSnapshot `yaml:"children,omitempty"`
}

// NewSnapshot summarizes a finalized type and its explorer tree.
func NewSnapshot(typ *FinalizedType, tree *ExplorerItem) *Snapshot {
	s := &Snapshot{
		Type: typ.QualifiedName(),
		Base: typ.Base.Qualified(),
		Constructor: &CtorSnapshot{
			Name:    typ.Constructor.Name,
			Params:  typ.Constructor.Params,
			Forward: typ.Constructor.Forward,
		},
		Tree: snapshotNode(tree),
	}

	for _, m := range typ.Members {
		s.Members = append(s.Members, MemberSnapshot{Name: m.Name, Provider: m.Provider})
	}

	for _, m := range typ.Models {
		s.Models = append(s.Models, ModelSnapshot{
			Name:     m.Name,
			Provider: m.Provider,
			Fields:   len(m.Fields),
			Values:   len(m.Values),
		})
	}

	return s
}

func snapshotNode(item *ExplorerItem) *NodeSnapshot {
	if item == nil {
		return nil
	}

	n := &NodeSnapshot{
		Text:   item.Text,
		Kind:   item.Kind.String(),
		Icon:   string(item.Icon),
		Member: item.Member,
	}

	for _, child := range item.Children {
		n.Children = append(n.Children, snapshotNode(child))
	}

	return n
}

// YAML encodes the snapshot.
func (s *Snapshot) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}
