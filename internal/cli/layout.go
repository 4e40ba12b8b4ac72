package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/uitmedia/framefusion/pkg/layout"
)

// layoutCommand creates the layout command for working with saved slot
// layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Create and inspect slot layouts",
		Long: `Create and inspect slot layouts.

A layout file lists the photo slots of a frame in normalized coordinates
(0-1 on each axis), optionally with an aspect constraint such as "3:4".
Layouts are read and written as TOML, YAML or JSON, chosen by extension.`,
	}

	cmd.AddCommand(c.layoutShowCommand())
	cmd.AddCommand(c.layoutNewCommand())
	cmd.AddCommand(c.layoutPresetsCommand())

	return cmd
}

func (c *CLI) layoutShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [layout]",
		Short: "Print the slots of a layout file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := layout.LoadDocument(args[0])
			if err != nil {
				return err
			}
			if err := doc.Validate(); err != nil {
				printError("%s is not a usable layout", args[0])
				return err
			}

			fmt.Println(StyleTitle.Render(args[0]))
			if doc.Frame != "" {
				printKeyValue("frame", doc.Frame)
			}
			fmt.Println(slotTable(doc.Slots))
			return nil
		},
	}
}

// slotTable renders slots as a table with positions in percent.
func slotTable(slots []layout.Placeholder) string {
	pct := func(v float64) string { return strconv.FormatFloat(v*100, 'f', 1, 64) + "%" }

	rows := make([][]string, len(slots))
	for i, s := range slots {
		ratio := s.AspectRatio
		if ratio == "" {
			ratio = "free"
		}
		rows[i] = []string{strconv.Itoa(i + 1), s.ID, pct(s.X), pct(s.Y), pct(s.Width), pct(s.Height), ratio}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Slot", "X", "Y", "Width", "Height", "Aspect").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case col == 0:
				return StyleNumber
			case col == 6 && row < len(rows) && rows[row][6] == "free":
				return StyleDim
			}
			return StyleValue
		}).
		Render()
}

func (c *CLI) layoutNewCommand() *cobra.Command {
	var (
		output string
		frame  string
		grid   string
		margin float64
		ratio  string
		width  float64
		height float64
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Write a grid layout",
		Long: `Write a grid layout.

The grid is given as ROWSxCOLS. With --aspect every slot is constrained to
that ratio and centered in its cell; the frame size (--width, --height)
decides how a ratio maps onto normalized coordinates.`,
		Example: `  framefusion layout new --grid 3x1 --aspect 4:3 -o strip.toml
  framefusion layout new --grid 2x2 --frame frame.png -o quad.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, cols, err := parseGrid(grid)
			if err != nil {
				return err
			}
			slots, err := layout.Grid(rows, cols, margin, ratio, layout.Canvas{Width: width, Height: height, DPR: 1})
			if err != nil {
				return err
			}
			doc := &layout.Document{Frame: frame, Slots: slots}
			if err := doc.Save(output); err != nil {
				return fmt.Errorf("write layout %s: %w", output, err)
			}

			printSuccess("Layout written")
			printFile(output)
			printStats(fmt.Sprintf("%d slots", len(slots)), grid)
			printNewline()
			printNextStep("Compose", "framefusion compose --layout "+output+" photos...")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "layout.toml", "output file (.toml, .yaml or .json)")
	cmd.Flags().StringVar(&frame, "frame", "", "frame image to record in the layout")
	cmd.Flags().StringVarP(&grid, "grid", "g", "1x1", "rows and columns, e.g. 3x1")
	cmd.Flags().Float64Var(&margin, "margin", 0.04, "gap between slots as a fraction of the frame")
	cmd.Flags().StringVar(&ratio, "aspect", "", "aspect constraint for every slot, e.g. 3:4")
	cmd.Flags().Float64Var(&width, "width", 1200, "frame width in pixels")
	cmd.Flags().Float64Var(&height, "height", 1800, "frame height in pixels")

	return cmd
}

// parseGrid parses "ROWSxCOLS".
func parseGrid(s string) (rows, cols int, err error) {
	rs, cs, ok := strings.Cut(strings.ToLower(s), "x")
	if ok {
		rows, err = strconv.Atoi(strings.TrimSpace(rs))
		if err == nil {
			cols, err = strconv.Atoi(strings.TrimSpace(cs))
		}
	}
	if !ok || err != nil {
		return 0, 0, fmt.Errorf("grid %q must be ROWSxCOLS, e.g. 3x1", s)
	}
	return rows, cols, nil
}

func (c *CLI) layoutPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the aspect presets offered by the designer",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range layout.AspectPresets {
				ratio := p.Ratio
				if ratio == "" {
					ratio = "-"
				}
				printKeyValue(p.Label, ratio)
			}
		},
	}
}
