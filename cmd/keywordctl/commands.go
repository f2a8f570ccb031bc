package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/keywordlab/internal/domain/research"
	domusage "github.com/kailas-cloud/keywordlab/internal/domain/usage"
	keyworduc "github.com/kailas-cloud/keywordlab/internal/usecase/keyword"
)

func newResearchCmd(c *cli) *cobra.Command {
	var (
		req  keyworduc.Request
		tags []string
	)
	cmd := &cobra.Command{
		Use:   "research <query>",
		Short: "Collect keywords for a seed query and save a research record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Input.Query = strings.Join(args, " ")
			req.Input.Tags = tags
			res := c.research.ProcessAndSaveQuery(cmd.Context(), req)
			if !res.Success {
				if res.ResearchID != "" {
					return fmt.Errorf("research %s: %w", res.ResearchID, res.Err)
				}
				return res.Err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.ResearchID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Input.Region, "region", "", "search region (default us)")
	f.StringVar(&req.Input.Language, "language", "", "search language (default en)")
	f.StringVar(&req.Input.SearchEngine, "engine", "", "search engine (default google)")
	f.StringVar(&req.Input.Device, "device", "", "device (default desktop)")
	f.StringVar(&req.Input.Name, "name", "", "record name (default the query)")
	f.StringVar(&req.Input.Description, "description", "", "record description")
	f.StringSliceVar(&tags, "tag", nil, "tag to attach, repeatable")
	f.BoolVar(&req.Input.IsFavorite, "favorite", false, "mark the record as favorite")
	f.BoolVar(&req.FilterZeroVolume, "filter-zero", false, "drop keywords without search volume")
	f.BoolVar(&req.Alphabet, "alphabet", false, "expand autosuggest with a-z suffixes")
	f.BoolVar(&req.Symbols, "symbols", false, "expand autosuggest with question patterns")
	return cmd
}

func newListCmd(c *cli) *cobra.Command {
	var (
		cursor string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List research records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, next, err := c.research.List(cmd.Context(), cursor, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tQUERY\tKEYWORDS\tCLUSTERS\tSTATUS\tCREATED")
			for i := range records {
				r := &records[i]
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", r.ID(), r.Query(), len(r.UniqueKeywords()),
					len(r.Clusters()), r.Status().Effective(), formatMillis(r.CreatedAt()))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if next != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "next cursor: %s\n", next)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cursor, "cursor", "", "cursor from a previous page")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (default from config)")
	return cmd
}

func newShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <research-id>",
		Short: "Print a research record with its keywords and clusters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.research.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResearch(cmd.OutOrStdout(), &r)
		},
	}
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <research-id>",
		Short: "Delete a research record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.research.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newClusterCmd(c *cli) *cobra.Command {
	var (
		wait    bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "cluster <research-id>",
		Short: "Start clustering a research record",
		Long: `Start clustering a research record.

Clustering runs in the background. Without --wait the command returns as soon
as the record is claimed; the process then waits for the run before exiting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, task := c.clustering.RequestClustering(cmd.Context(), args[0])
			if !res.Success {
				return res.Err
			}
			out := cmd.OutOrStdout()
			if task == nil {
				fmt.Fprintf(out, "clustering accepted for %s\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "clustering task %s started for %s\n", task.ID(), args[0])
			if !wait {
				return nil
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			if err := task.Wait(ctx); err != nil {
				return fmt.Errorf("clustering %s: %w", args[0], err)
			}
			fmt.Fprintf(out, "clustering %s\n", task.Status())
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "block until clustering settles and report the outcome")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up waiting after this long")
	return cmd
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status <research-id>",
		Short: "Show the clustering status of a research record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := c.clustering.FetchClusteringStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s (%d clusters, updated %s)\n",
				rep.ResearchID, rep.Status, rep.Clusters, formatMillis(rep.UpdatedAt))
			if rep.Error != "" {
				fmt.Fprintf(out, "error: %s\n", rep.Error)
			}
			return nil
		},
	}
}

func newPersonaCmd(c *cli) *cobra.Command {
	var (
		keywords []string
		model    string
	)
	cmd := &cobra.Command{
		Use:   "persona <research-id> <cluster-name>",
		Short: "Generate and save the persona of one cluster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := c.personas.SavePersona(cmd.Context(), args[0], args[1], keywords, model)
			if !res.Success {
				return res.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "persona saved for cluster %q\n", args[1])
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "override the cluster keywords, repeatable")
	cmd.Flags().StringVar(&model, "model", "", "override the persona model")
	return cmd
}

func newUsageCmd(c *cli) *cobra.Command {
	var resource, period string
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show metered usage and remaining budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := domusage.ParseResource(resource)
			if err != nil {
				return err
			}
			p, err := domusage.ParsePeriod(period)
			if err != nil {
				return err
			}
			rep := c.usage.GetReport(cmd.Context(), res, p)
			m, b := rep.Metrics(), rep.Budget()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s usage (%s): %d requests, %d units\n", rep.Resource(), rep.Period(), m.Requests(), m.Units())
			switch {
			case b.Unlimited():
				fmt.Fprintln(out, "budget: unlimited")
			case b.IsExhausted():
				fmt.Fprintf(out, "budget: exhausted (limit %d)\n", b.Limit())
			default:
				fmt.Fprintf(out, "budget: %d of %d remaining\n", b.Remaining(), b.Limit())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&resource, "resource", "", "llm or volume (default llm)")
	cmd.Flags().StringVar(&period, "period", "", "day, month or total (default month)")
	return cmd
}

func printResearch(w io.Writer, r *research.Research) error {
	in := r.Input()
	fmt.Fprintf(w, "%s  %q\n", r.ID(), in.Name)
	fmt.Fprintf(w, "query: %s  [%s/%s %s %s]\n", in.Query, in.Region, in.Language, in.SearchEngine, in.Device)
	if len(in.Tags) > 0 {
		fmt.Fprintf(w, "tags: %s\n", strings.Join(in.Tags, ", "))
	}
	fmt.Fprintf(w, "clustering: %s\n", r.Status().Effective())
	if msg := r.StatusError(); msg != "" {
		fmt.Fprintf(w, "clustering error: %s\n", msg)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nKEYWORD\tVOLUME")
	for _, k := range r.SortedKeywords() {
		fmt.Fprintf(tw, "%s\t%d\n", k.Text, k.SearchVolume)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	clusters := r.Clusters()
	for _, name := range research.ClusterNames(clusters) {
		cl := clusters[name]
		fmt.Fprintf(w, "\n[%s] %d keywords, volume %d\n", name, len(cl.Keywords), cl.TotalVolume)
		for _, k := range cl.Keywords {
			fmt.Fprintf(w, "  %s\n", k)
		}
	}
	for _, p := range r.Personas() {
		fmt.Fprintf(w, "\npersona: %s\n", p.Name)
	}
	return nil
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
