package main

import (
	"fmt"

	"github.com/spf13/cobra"

	reconcile "github.com/vango-dev/reconcile"
	"github.com/vango-dev/reconcile/internal/fixture"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
	"github.com/vango-dev/reconcile/pkg/vtest"
)

func applyCmd(flags *globalFlags) *cobra.Command {
	var (
		asYAML bool
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "apply OLD NEW",
		Short: "Apply the diff of two trees to an in-memory host",
		Long: `Apply mounts OLD into an in-memory host, applies the patches that turn
it into NEW and prints the resulting live tree.

The live tree is then compared with NEW; apply fails when they differ.

Examples:
  reconcile apply old.yaml new.yaml
  reconcile apply --yaml old.yaml new.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			old, err := fixture.Load(args[0])
			if err != nil {
				return err
			}
			next, err := fixture.Load(args[1])
			if err != nil {
				return err
			}
			want := vdom.Clone(next)

			mem := host.NewMemory()
			container := mem.NewContainer("body")
			root := reconcile.New(mem, container,
				reconcile.WithConfig(cfg.Engine),
				reconcile.WithLogger(newLogger(cmd, cfg)),
			)
			defer root.Dispose()

			if err := root.Mount(old); err != nil {
				return fmt.Errorf("mount %s: %w", args[0], err)
			}
			mounted := root.Applier().Stats()

			var frame reconcile.Frame
			root.OnFrame(func(f reconcile.Frame) { frame = f })
			if err := root.Update(next); err != nil {
				return fmt.Errorf("apply %s: %w", args[1], err)
			}

			w := cmd.OutOrStdout()
			live := mem.Children(container)
			if len(live) != 1 {
				return fmt.Errorf("container has %d children after apply", len(live))
			}
			got := mem.Snapshot(live[0])

			if asYAML {
				data, err := fixture.Marshal(got)
				if err != nil {
					return err
				}
				w.Write(data)
			} else {
				fmt.Fprintln(w, mem.RenderChildren(container))
			}

			if !quiet {
				stats := root.Applier().Stats()
				printSummary(w, frame.Patches)
				info(w, "created=%d removed=%d replaced=%d moved=%d text=%d props=%d",
					stats.Created-mounted.Created,
					stats.Removed-mounted.Removed,
					stats.Replaced-mounted.Replaced,
					stats.Moved-mounted.Moved,
					stats.TextSet-mounted.TextSet,
					stats.PropsChanged-mounted.PropsChanged,
				)
			}

			if !vdom.Equal(vtest.Normalize(got), vtest.Normalize(want)) {
				errorMsg(cmd.ErrOrStderr(), "Live tree differs from %s", args[1])
				return fmt.Errorf("live tree does not match %s", args[1])
			}
			if !quiet {
				success(w, "Live tree matches %s", args[1])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the live tree as a YAML fixture")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the live tree")

	return cmd
}
