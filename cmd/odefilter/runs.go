package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/storage"
	"github.com/spf13/cobra"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tMETHOD\tTIME\tORDER\tDT\tITERS\tREF_MAX")

	for _, run := range runs {
		refMax := "-"
		if v, ok := run.Metrics["ref_max"]; ok {
			refMax = fmt.Sprintf("%.2e", v)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%g\t%d\t%s\n",
			run.ID,
			run.Problem,
			run.Method,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Order,
			run.Dt,
			run.Iterations,
			refMax,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	values, stds, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Println(header.Render("run " + meta.ID))
	fmt.Println(field("problem", "%s", meta.Problem))
	fmt.Println(field("method", "%s", meta.Method))
	fmt.Println(field("samples", "%d", len(values)))
	fmt.Println()

	means := toStates(values)
	sigmas := toStates(stds)

	first, last := 0, len(values[0])-1
	if component >= 0 {
		if component > last {
			return fmt.Errorf("component %d out of range, run has %d", component, last+1)
		}
		first, last = component, component
	}
	const maxPlots = 6
	if last-first >= maxPlots {
		last = first + maxPlots - 1
	}

	for i := first; i <= last; i++ {
		fmt.Println(plotBand(means, sigmas, i, fmt.Sprintf("y%d vs time", i)))
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func toStates(rows [][]float64) []dynamo.State {
	out := make([]dynamo.State, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
