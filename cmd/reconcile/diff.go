package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reconcile/internal/fixture"
	"github.com/vango-dev/reconcile/pkg/applier"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

func diffCmd(flags *globalFlags) *cobra.Command {
	var (
		asJSON   bool
		noKeyed  bool
		noLCS    bool
		gaps     bool
		coalesce bool
	)

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Print the patches turning one tree into another",
		Long: `Diff reads two tree fixtures and prints the patches that turn OLD
into NEW.

OLD is mounted into an in-memory host first so that patches carry the
element IDs they would address in a live tree.

Examples:
  reconcile diff old.yaml new.yaml
  reconcile diff --json old.yaml new.yaml
  reconcile diff --no-keyed --no-lcs old.yaml new.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			opts := cfg.Engine.DiffOptions()
			if noKeyed {
				opts.Keyed = false
			}
			if noLCS {
				opts.LCS = false
			}
			if gaps {
				opts.MatchGaps = true
			}
			if coalesce {
				opts.CoalesceMoves = true
			}

			old, err := fixture.Load(args[0])
			if err != nil {
				return err
			}
			next, err := fixture.Load(args[1])
			if err != nil {
				return err
			}

			mem := host.NewMemory()
			a := applier.New(mem,
				applier.WithLogger(newLogger(cmd, cfg)),
				applier.WithIDPrefix(cfg.Engine.IDPrefix),
			)
			if err := a.Mount(mem.NewContainer("body"), old); err != nil {
				return fmt.Errorf("mount %s: %w", args[0], err)
			}

			patches, err := vdom.NewDiffer(opts).Diff(old, next)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if patches == nil {
					patches = []vdom.Patch{}
				}
				return enc.Encode(patches)
			}
			if len(patches) == 0 {
				success(w, "Trees are equal")
				return nil
			}
			fmt.Fprint(w, vdom.Format(patches))
			fmt.Fprintln(w)
			printSummary(w, patches)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print patches as JSON")
	cmd.Flags().BoolVar(&noKeyed, "no-keyed", false, "Ignore keys when matching children")
	cmd.Flags().BoolVar(&noLCS, "no-lcs", false, "Match unkeyed children by position only")
	cmd.Flags().BoolVar(&gaps, "match-gaps", false, "Diff same-tag children between LCS anchors instead of recreating them")
	cmd.Flags().BoolVar(&coalesce, "coalesce", false, "Gather moves into Reorder patches")

	return cmd
}

// printSummary prints patch counts by operation.
func printSummary(w io.Writer, patches []vdom.Patch) {
	counts := vdom.CountOps(patches)
	parts := make([]string, 0, len(counts))
	for _, op := range slices.Sorted(maps.Keys(counts)) {
		parts = append(parts, fmt.Sprintf("%s=%d", op, counts[op]))
	}
	info(w, "%d patches (%s)", len(patches), strings.Join(parts, " "))
}
