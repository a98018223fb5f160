package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chazu/facet/pkg/config"
	"github.com/chazu/facet/pkg/designer"
	"github.com/chazu/facet/pkg/eval"
)

func openDesign(logger *charmlog.Logger, path string) (*designer.Designer, error) {
	d, err := designer.New(logger)
	if err != nil {
		return nil, err
	}
	if err := d.Load(path); err != nil {
		return nil, err
	}
	return d, nil
}

func newEvalCmd(logger *charmlog.Logger) *cobra.Command {
	var (
		network     string
		cfgPath     string
		pointCloud  bool
		lightweight bool
		timeout     time.Duration
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "eval <design.json>",
		Short: "Evaluate a network and report its scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDesign(logger, args[0])
			if err != nil {
				return err
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			opts := cfg.Options()
			if pointCloud {
				opts.Mode = eval.ModePointCloud
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			scene, err := d.GenerateScene(ctx, network, opts, lightweight || cfg.Display.Lightweight)
			if err != nil {
				return err
			}
			return printScene(cmd.OutOrStdout(), scene, asJSON)
		},
	}
	cmd.Flags().StringVarP(&network, "network", "n", "main", "network to evaluate")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "display preferences file (TOML)")
	cmd.Flags().BoolVar(&pointCloud, "pointcloud", false, "render geometry as point clouds instead of meshes")
	cmd.Flags().BoolVar(&lightweight, "lightweight", false, "skip evaluation, produce a scene shell")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "cancel evaluation after this duration")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the scene summary as JSON")
	return cmd
}

// sceneSummary is the CLI-facing digest of a scene.
type sceneSummary struct {
	Partial     bool              `json:"partial,omitempty"`
	Lightweight bool              `json:"lightweight,omitempty"`
	Values      map[string]string `json:"values,omitempty"`
	Meshes      map[string]int    `json:"mesh_triangles,omitempty"`
	Clouds      map[string]int    `json:"cloud_points,omitempty"`
	Atoms       map[string]int    `json:"atom_counts,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
}

func summarize(scene *eval.Scene) sceneSummary {
	s := sceneSummary{
		Partial:     scene.Partial,
		Lightweight: scene.Lightweight,
		Values:      map[string]string{},
		Meshes:      map[string]int{},
		Clouds:      map[string]int{},
		Atoms:       map[string]int{},
		Errors:      map[string]string{},
	}
	for id, v := range scene.Values {
		s.Values[fmt.Sprintf("%d", id)] = v.String()
	}
	for id, m := range scene.Meshes {
		s.Meshes[fmt.Sprintf("%d", id)] = len(m.Indices) / 3
	}
	for id, c := range scene.Clouds {
		s.Clouds[fmt.Sprintf("%d", id)] = len(c.Points)
	}
	for id, a := range scene.Atoms {
		s.Atoms[fmt.Sprintf("%d", id)] = len(a.Atoms)
	}
	for id, msg := range scene.Errors {
		s.Errors[fmt.Sprintf("%d", id)] = msg
	}
	return s
}

func printScene(w io.Writer, scene *eval.Scene, asJSON bool) error {
	s := summarize(scene)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	if s.Lightweight {
		fmt.Fprintln(w, "lightweight scene (not evaluated)")
		return nil
	}
	if s.Partial {
		fmt.Fprintln(w, "partial scene (evaluation cancelled)")
	}
	printSorted(w, "value", s.Values)
	for _, line := range []struct {
		label string
		m     map[string]int
	}{
		{"mesh", s.Meshes},
		{"cloud", s.Clouds},
		{"atoms", s.Atoms},
	} {
		counts := make(map[string]string, len(line.m))
		for k, v := range line.m {
			counts[k] = fmt.Sprintf("%d", v)
		}
		printSorted(w, line.label, counts)
	}
	printSorted(w, "error", s.Errors)
	return nil
}

func printSorted(w io.Writer, label string, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s %s: %s\n", label, k, m[k])
	}
}

func newValidateCmd(logger *charmlog.Logger) *cobra.Command {
	var network string
	cmd := &cobra.Command{
		Use:   "validate <design.json>",
		Short: "Validate subnetwork interfaces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDesign(logger, args[0])
			if err != nil {
				return err
			}
			results := d.ValidateAll()
			names := make([]string, 0, len(results))
			for name := range results {
				names = append(names, name)
			}
			sort.Strings(names)

			failed := false
			for _, name := range names {
				if network != "" && name != network {
					continue
				}
				res := results[name]
				if res.Valid {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", name)
					continue
				}
				failed = true
				fmt.Fprintf(cmd.OutOrStdout(), "%s: invalid\n", name)
				for _, msg := range res.Errors {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", msg)
				}
			}
			if failed {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&network, "network", "n", "", "limit output to one network")
	return cmd
}

func newQueryCmd(logger *charmlog.Logger) *cobra.Command {
	var network string
	cmd := &cobra.Command{
		Use:   "query <design.json>",
		Short: "Print a network in text format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDesign(logger, args[0])
			if err != nil {
				return err
			}
			text, err := d.Query(network)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&network, "network", "n", "main", "network to query")
	return cmd
}

func newEditCmd(logger *charmlog.Logger) *cobra.Command {
	var (
		network string
		file    string
		replace bool
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "edit <design.json>",
		Short: "Apply text-format edits to a network",
		Long:  "Reads text-format statements from --file (or stdin) and applies them to the named network, creating it if absent. The design file is rewritten unless --dry-run is set.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDesign(logger, args[0])
			if err != nil {
				return err
			}
			var text []byte
			if file == "" || file == "-" {
				text, err = io.ReadAll(cmd.InOrStdin())
			} else {
				text, err = os.ReadFile(file)
			}
			if err != nil {
				return err
			}

			if d.Network(network) == nil {
				if err := d.NewNetwork(network); err != nil {
					return err
				}
			}
			res, err := d.Edit(network, string(text), replace)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if len(res.Errors) > 0 {
				logger.Warn("edit finished with errors", "count", len(res.Errors))
			}
			if dryRun {
				return nil
			}
			return d.Save(args[0])
		},
	}
	cmd.Flags().StringVarP(&network, "network", "n", "main", "network to edit")
	cmd.Flags().StringVarP(&file, "file", "f", "", "statements file (default stdin)")
	cmd.Flags().BoolVar(&replace, "replace", false, "delete nodes not mentioned in the input")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report the edit without saving")
	return cmd
}
