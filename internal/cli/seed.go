package cli

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/skilltreelabs/skilltree/pkg/errors"
	"github.com/skilltreelabs/skilltree/pkg/graph"
	"github.com/skilltreelabs/skilltree/pkg/store"
)

// seedCommand creates the seed command resetting a gateway's dataset.
func (c *CLI) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Reset the gateway's dataset to the built-in seed",
		Long: `Replace the configured gateway's dataset with the built-in seed.

This is destructive: every node and edge added since the last seed is lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cl, err := c.newClient(cfg)
			if err != nil {
				return err
			}

			sp := newSpinnerWithContext(cmd.Context(), "Reseeding...")
			sp.Start()
			err = cl.Reseed(cmd.Context())
			sp.Stop()
			if err != nil {
				return err
			}
			printSuccess("Dataset reseeded at %s", cfg.Client.BaseURL)
			return nil
		},
	}
}

// nodeCommand groups node management subcommands.
func (c *CLI) nodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage graph nodes on the gateway",
	}
	cmd.AddCommand(c.nodeAddCommand())
	return cmd
}

// nodeAddCommand creates the node add subcommand.
func (c *CLI) nodeAddCommand() *cobra.Command {
	var (
		slug       string
		title      string
		shortTitle string
		summary    string
		kind       string
		parent     string
		requires   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a node to the gateway's dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := store.CreateNodeInput{
				Slug:       slug,
				Title:      title,
				ShortTitle: shortTitle,
				Summary:    summary,
				Kind:       graph.NodeKind(kind),
			}
			if parent != "" {
				id, err := uuid.Parse(parent)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "--parent must be a node ID")
				}
				in.ParentID = &id
			}
			for _, raw := range strings.Split(requires, ",") {
				raw = strings.TrimSpace(raw)
				if raw == "" {
					continue
				}
				id, err := uuid.Parse(raw)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "--requires entries must be node IDs")
				}
				in.Requires = append(in.Requires, id)
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cl, err := c.newClient(cfg)
			if err != nil {
				return err
			}

			node, err := cl.CreateNode(cmd.Context(), in)
			if err != nil {
				return err
			}
			printSuccess("Created %s", node.Slug)
			printKeyValue("id", node.ID.String())
			printKeyValue("kind", string(node.Kind))
			return nil
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "node slug (required)")
	cmd.Flags().StringVar(&title, "title", "", "node title (required)")
	cmd.Flags().StringVar(&shortTitle, "short-title", "", "abbreviated title for the canvas")
	cmd.Flags().StringVar(&summary, "summary", "", "one-line summary")
	cmd.Flags().StringVar(&kind, "kind", string(graph.KindConcept), "node kind: concept or group")
	cmd.Flags().StringVar(&parent, "parent", "", "parent group ID")
	cmd.Flags().StringVar(&requires, "requires", "", "comma-separated prerequisite node IDs")
	_ = cmd.MarkFlagRequired("slug")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
