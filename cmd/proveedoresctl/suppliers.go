package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tdr/proveedores/internal/suppliers"
)

func newSuppliersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suppliers",
		Short: "Read the persisted supplier list",
	}

	var format string
	var byName bool
	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print the stored supplier list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			repo, closeRepo, err := opts.repository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			list, err := repo.Load(ctx)
			if err != nil {
				return err
			}
			if byName {
				suppliers.SortByName(list)
			}
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			case "csv":
				return suppliers.WriteCSV(csv.NewWriter(out), list)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	dump.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	dump.Flags().BoolVar(&byName, "sort-name", false, "order by name")

	status := &cobra.Command{
		Use:   "status",
		Short: "Report whether storage holds a list and the seeded marker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			repo, closeRepo, err := opts.repository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			list, err := repo.Load(ctx)
			if err != nil {
				return err
			}
			seeded, err := repo.Seeded(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "suppliers=%d seeded=%t\n", len(list), seeded)
			return nil
		},
	}

	cmd.AddCommand(dump, status)
	return cmd
}

func newSeedCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Inspect seed sources",
	}

	var url string
	var timeout time.Duration
	check := &cobra.Command{
		Use:   "check",
		Short: "Fetch the remote seed and report what it holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			list, err := suppliers.NewHTTPSource(url, timeout).Fetch(ctx)
			if err != nil {
				return err
			}
			active := 0
			for _, s := range list {
				if s.Active {
					active++
				}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "url=%s suppliers=%d active=%d\n", url, len(list), active)
			return nil
		},
	}
	check.Flags().StringVar(&url, "url", envOr("SEED_URL", suppliers.DefaultSeedURL), "seed document URL")
	check.Flags().DurationVar(&timeout, "seed-timeout", 10*time.Second, "HTTP timeout for the fetch")

	cmd.AddCommand(check)
	return cmd
}
