package explorer

import (
	"io"
	"strings"

	"github.com/rlch/dbctx"
)

// Render writes root and its descendants as an indented tree. A nil styles
// uses PlainStyles.
func Render(w io.Writer, root *dbctx.ExplorerItem, styles *Styles) error {
	if root == nil {
		return nil
	}

	if styles == nil {
		styles = PlainStyles()
	}

	var b strings.Builder

	b.WriteString(styles.label(root))
	b.WriteString("\n")

	for i, child := range root.Children {
		renderNode(&b, styles, child, "", i == len(root.Children)-1)
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func renderNode(b *strings.Builder, styles *Styles, item *dbctx.ExplorerItem, prefix string, isLast bool) {
	branch := "├─"
	if isLast {
		branch = "╰─"
	}

	b.WriteString(styles.Branch.Render(prefix + branch + " "))
	b.WriteString(styles.label(item))
	b.WriteString("\n")

	childPrefix := prefix
	if isLast {
		childPrefix += "  "
	} else {
		childPrefix += "│ "
	}

	for i, child := range item.Children {
		renderNode(b, styles, child, childPrefix, i == len(item.Children)-1)
	}
}
