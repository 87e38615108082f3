package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/specimen"
)

func newAreasCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "areas",
		Short: "Manage stored specimen cross-sectional areas and labels",
	}

	var label string
	var gauge float64
	set := &cobra.Command{
		Use:   "set <specimen> <area>",
		Short: "Store the cross-sectional area (mm²) for a specimen",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			area, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return &exitError{code: 2, err: fmt.Errorf("area %q: %w", args[1], err)}
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return st.UpsertConfig(args[0], specimen.Config{CrossSectionalArea: area, GaugeLength: gauge, Label: label})
		},
	}
	set.Flags().StringVar(&label, "label", "", "legend text for plots")
	set.Flags().Float64Var(&gauge, "gauge", 0, "specimen-specific gauge length in mm")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored specimen configs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			table, err := st.ConfigTable()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SPECIMEN\tAREA\tGAUGE\tLABEL")
			for _, id := range table.IDs() {
				cfg, _ := table.Lookup(id)
				gauge := "-"
				if cfg.GaugeLength > 0 {
					gauge = strconv.FormatFloat(cfg.GaugeLength, 'g', -1, 64)
				}
				fmt.Fprintf(tw, "%s\t%g\t%s\t%s\n", id, cfg.CrossSectionalArea, gauge, cfg.Label)
			}
			return tw.Flush()
		},
	}

	remove := &cobra.Command{
		Use:   "delete <specimen>",
		Short: "Remove a stored specimen config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return st.DeleteConfig(args[0])
		},
	}

	imp := &cobra.Command{
		Use:   "import <sidecar.csv|specimens.yaml|specimens.json>",
		Short: "Import areas from a sidecar CSV or a specimen config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readAreas(args[0])
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := st.ImportTable(table)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d specimen configs\n", n)
			return nil
		},
	}

	exp := &cobra.Command{
		Use:   "export <sidecar.csv|specimens.yaml|specimens.json>",
		Short: "Export stored configs as a sidecar CSV or a specimen config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			table, err := st.ConfigTable()
			if err != nil {
				return err
			}
			return writeAreas(args[0], table)
		},
	}

	cmd.AddCommand(set, list, remove, imp, exp)
	return cmd
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

func readAreas(path string) (*specimen.Table, error) {
	if !isCSV(path) {
		return specimen.LoadFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	areas, err := specimen.ReadSidecar(f)
	if err != nil {
		return nil, err
	}
	return specimen.NewTable(nil).WithAreas(areas, nil), nil
}

func writeAreas(path string, table *specimen.Table) error {
	if !isCSV(path) {
		return specimen.SaveFile(path, table)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := specimen.WriteSidecar(f, table, table.IDs()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
