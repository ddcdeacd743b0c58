package app

import (
	"context"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"supply-alerts/internal/service"
	"supply-alerts/internal/supply"
)

// Supply prints every qualifying feed field and the aggregate. It never alerts.
func (a *App) Supply(ctx context.Context, opts SupplyOptions) error {
	svc := service.New(a.runConfig(), a.newFetcher(), nil, a.Logger)

	contributions, total, err := svc.SupplyBreakdown(ctx)
	if err != nil {
		return err
	}

	_, err = io.WriteString(a.Stdout, renderBreakdown(contributions, total, opts.Raw, isTerminal(a.Stdout))+"\n")
	return err
}

func renderBreakdown(contributions []supply.Contribution, total float64, raw, terminal bool) string {
	format := supply.Format
	if raw {
		format = func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	}

	tw := table.NewWriter()
	if terminal {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}

	tw.AppendHeader(table.Row{"Field", "Supply"})
	for _, c := range contributions {
		tw.AppendRow(table.Row{c.Key, format(c.Value)})
	}
	tw.AppendFooter(table.Row{"Total", format(total)})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
	})

	return tw.Render()
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
