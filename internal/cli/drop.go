package cli

import (
	"context"
	"fmt"

	"biolink-cli/internal/builder"
	"biolink-cli/internal/model"

	"github.com/spf13/cobra"
)

// newDropCmd replays one pointer sample through a full drag session: begin, one
// position update over the target element, drop.
func newDropCmd(app *App) *cobra.Command {
	var (
		mouseY      float64
		targetIndex int
		rectTop     float64
		rectHeight  float64
	)
	cmd := &cobra.Command{
		Use:   "drop <element-id|template>",
		Short: "Drag an element (or a template) over the element at --target-index and drop it",
		Long: `Drag an element (or a template) over the element at --target-index and drop it.

--rect-top/--rect-height describe the target element on screen and --mouse-y the
pointer. The top 30% of the target inserts above it, the bottom 30% below it; the
middle band is decided by the drag direction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBuilder(cmd, app, func(ctx context.Context, b *builder.Builder) (any, error) {
				item, err := draggedItem(b, args[0])
				if err != nil {
					return nil, err
				}
				opID := b.BeginDrag(item)
				if opID == "" {
					return nil, fmt.Errorf("could not start a drag for %s", args[0])
				}
				rect := model.NewElementRect(rectTop, rectHeight)
				if _, ok := b.DragOver(mouseY, rect, b.DraggedIndex(), targetIndex); !ok {
					b.AbortDrag()
					return nil, fmt.Errorf("drag %s ended before the drop", opID)
				}
				res, err := b.Drop(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"data": res,
					"meta": map[string]any{
						"order": elementIDs(b.Elements()),
						"undo":  undoDepth(b),
					},
				}, nil
			})
		},
	}
	cmd.Flags().Float64Var(&mouseY, "mouse-y", 0, "Pointer Y coordinate")
	cmd.Flags().IntVar(&targetIndex, "target-index", 0, "Committed index of the element under the pointer")
	cmd.Flags().Float64Var(&rectTop, "rect-top", 0, "Top of the target element")
	cmd.Flags().Float64Var(&rectHeight, "rect-height", 0, "Height of the target element")
	_ = cmd.MarkFlagRequired("mouse-y")
	_ = cmd.MarkFlagRequired("target-index")
	_ = cmd.MarkFlagRequired("rect-height")
	return cmd
}

// draggedItem resolves key to an element on the page, then to a template.
func draggedItem(b *builder.Builder, key string) (model.DraggedItem, error) {
	if el, ok := b.Page().FindElement(key); ok {
		return model.ElementItem{Element: el.Clone()}, nil
	}
	if tpl, ok := model.FindTemplate(key); ok {
		return model.TemplateItem{Template: tpl}, nil
	}
	return nil, errNotFound("element or template", key)
}

func elementIDs(els []model.Element) []string {
	out := make([]string, 0, len(els))
	for _, e := range els {
		out = append(out, e.ID)
	}
	return out
}

func undoDepth(b *builder.Builder) int {
	past, _ := b.History().Len()
	return past
}
