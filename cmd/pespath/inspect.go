package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/pespath/internal/atoms"
	"github.com/samcharles93/pespath/internal/structio"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(0, 1)
)

func inspectCmd() *cli.Command {
	var (
		format string
		all    bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Summarize the frames of a structure file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "input format (xyz, json); inferred from the extension by default",
				Destination: &format,
			},
			&cli.BoolFlag{
				Name:        "all",
				Aliases:     []string{"a"},
				Usage:       "show every frame instead of the first and last",
				Destination: &all,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("inspect needs exactly one file")
			}
			path := cmd.Args().First()
			frames, err := structio.ReadAll(path, format)
			if err != nil {
				return err
			}
			fmt.Println(renderSummary(path, frames, all))
			return nil
		},
	}
}

func renderSummary(path string, frames []*atoms.Atoms, all bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(path))
	b.WriteString("\n")
	b.WriteString(field("frames", strconv.Itoa(len(frames))))

	show := make([]int, 0, len(frames))
	switch {
	case all || len(frames) <= 2:
		for i := range frames {
			show = append(show, i)
		}
	default:
		show = append(show, 0, len(frames)-1)
	}

	for _, i := range show {
		b.WriteString("\n")
		b.WriteString(renderFrame(i, frames[i]))
	}
	return boxStyle.Render(b.String())
}

func renderFrame(i int, a *atoms.Atoms) string {
	c := a.Centroid()
	energy := "-"
	if a.Energy != nil {
		energy = strconv.FormatFloat(*a.Energy, 'g', 10, 64)
	}
	rows := []string{
		labelStyle.Render(fmt.Sprintf("frame %d", i)),
		field("atoms", strconv.Itoa(a.Len())),
		field("formula", a.Formula()),
		field("energy", energy),
		field("centroid", fmt.Sprintf("%.4f %.4f %.4f", c.X, c.Y, c.Z)),
	}
	return strings.Join(rows, "\n")
}

func field(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("  %-9s", label)) + valueStyle.Render(value)
}
