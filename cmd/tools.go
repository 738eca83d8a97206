package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stephenmfriend/agent-commander/tools"
)

// toolInfo is the printable description of a registered tool.
type toolInfo struct {
	Name         string             `json:"name" yaml:"name"`
	DisplayName  string             `json:"display_name" yaml:"display_name"`
	Executable   string             `json:"executable" yaml:"executable"`
	DefaultModel string             `json:"default_model" yaml:"default_model"`
	Capabilities tools.Capabilities `json:"capabilities" yaml:"capabilities"`
	Models       map[string]string  `json:"models,omitempty" yaml:"models,omitempty"`
}

func newToolsCmd() *cobra.Command {
	var format string
	var models bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List supported agent CLIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTools(cmd.OutOrStdout(), tools.DefaultRegistry, format, models)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&models, "models", false, "Include model aliases")
	return cmd
}

func init() {
	rootCmd.AddCommand(newToolsCmd())
}

func describeTools(reg *tools.Registry, withModels bool) ([]toolInfo, error) {
	names := reg.Available()
	infos := make([]toolInfo, 0, len(names))
	for _, name := range names {
		t, err := reg.Get(name)
		if err != nil {
			return nil, err
		}
		info := toolInfo{
			Name:         t.Name(),
			DisplayName:  t.DisplayName(),
			Executable:   t.Executable(),
			DefaultModel: t.DefaultModel(),
			Capabilities: t.Capabilities(),
		}
		if withModels {
			info.Models = t.Models()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func listTools(w io.Writer, reg *tools.Registry, format string, withModels bool) error {
	infos, err := describeTools(reg, withModels)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(infos); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
	default:
		return fmt.Errorf("unknown format %q: must be text, json or yaml", format)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDISPLAY NAME\tEXECUTABLE\tDEFAULT MODEL\tCAPABILITIES")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			info.Name, info.DisplayName, info.Executable, info.DefaultModel, capabilityList(info.Capabilities))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if withModels {
		for _, info := range infos {
			fmt.Fprintf(w, "\n%s models:\n", info.Name)
			for _, alias := range slices.Sorted(maps.Keys(info.Models)) {
				fmt.Fprintf(w, "  %-20s %s\n", alias, info.Models[alias])
			}
		}
	}
	return nil
}

func capabilityList(c tools.Capabilities) string {
	var caps []string
	if c.JSONOutput {
		caps = append(caps, "json-output")
	}
	if c.JSONInput {
		caps = append(caps, "json-input")
	}
	if c.SystemPrompt {
		caps = append(caps, "system-prompt")
	}
	if c.Resume {
		caps = append(caps, "resume")
	}
	if len(caps) == 0 {
		return "-"
	}
	return strings.Join(caps, ",")
}
