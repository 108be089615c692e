package dbctx

import "slices"

// ExplorerKind classifies explorer items.
type ExplorerKind int

// Explorer kinds.
const (
	KindRoot ExplorerKind = iota
	KindCategory
	KindObject
	KindProperty
)

func (k ExplorerKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindCategory:
		return "category"
	case KindObject:
		return "object"
	case KindProperty:
		return "property"
	default:
		return "unknown"
	}
}

// ExplorerIcon hints how a UI should decorate an item.
type ExplorerIcon string

// Explorer icons.
const (
	IconNone      ExplorerIcon = ""
	IconSchema    ExplorerIcon = "schema"
	IconTable     ExplorerIcon = "table"
	IconView      ExplorerIcon = "view"
	IconColumn    ExplorerIcon = "column"
	IconKey       ExplorerIcon = "key"
	IconRoutine   ExplorerIcon = "routine"
	IconProcedure ExplorerIcon = "procedure"
	IconParameter ExplorerIcon = "parameter"
	IconEnum      ExplorerIcon = "enum"
	IconValue     ExplorerIcon = "value"
)

// ExplorerItem is a node of the schema tree shown to users.
type ExplorerItem struct {
	Text string
	Kind ExplorerKind
	Icon ExplorerIcon

	// Member names the generated member this item stands for, if any.
	Member string

	// Snippet is the code inserted when the item is dragged into an editor.
	Snippet string
	Tooltip string

	Children []*ExplorerItem
}

// NewCategory returns a grouping item.
func NewCategory(text string, icon ExplorerIcon, children ...*ExplorerItem) *ExplorerItem {
	return &ExplorerItem{Text: text, Kind: KindCategory, Icon: icon, Children: children}
}

// Add appends children and returns the item.
func (e *ExplorerItem) Add(children ...*ExplorerItem) *ExplorerItem {
	e.Children = append(e.Children, children...)
	return e
}

// AssembleTree returns a root item whose children are items, in order.
func AssembleTree(label string, items []*ExplorerItem) *ExplorerItem {
	return &ExplorerItem{
		Text:     label,
		Kind:     KindRoot,
		Children: slices.Clone(items),
	}
}

// Walk visits item and its descendants depth-first, parents before
// children. Returning false from fn skips the item's children.
func Walk(item *ExplorerItem, fn func(item *ExplorerItem, depth int) bool) {
	walk(item, 0, fn)
}

func walk(item *ExplorerItem, depth int, fn func(*ExplorerItem, int) bool) {
	if item == nil || !fn(item, depth) {
		return
	}

	for _, child := range item.Children {
		walk(child, depth+1, fn)
	}
}

// Find returns the first item, depth-first, whose Text matches.
func Find(root *ExplorerItem, text string) *ExplorerItem {
	var found *ExplorerItem

	Walk(root, func(item *ExplorerItem, _ int) bool {
		if found != nil {
			return false
		}

		if item.Text == text {
			found = item
			return false
		}

		return true
	})

	return found
}

// Associations returns the member names referenced in the tree, in walk order.
func Associations(root *ExplorerItem) []string {
	var names []string

	Walk(root, func(item *ExplorerItem, _ int) bool {
		if item.Member != "" {
			names = append(names, item.Member)
		}

		return true
	})

	return names
}
