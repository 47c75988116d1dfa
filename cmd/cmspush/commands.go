package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/app"
	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/postfile"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/credentials"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/shopify"
	"github.com/spf13/cobra"
)

// service is the part of app.Publisher the commands drive.
type service interface {
	Test(ctx context.Context, connectionID string) (domain.Connected, error)
	Blogs(ctx context.Context, connectionID string) ([]shopify.Blog, error)
	Push(ctx context.Context, connectionID string, post domain.NormalizedPost, opts app.PushOptions) (app.Result, error)
	Close() error
}

type opener func(ctx context.Context) (service, error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "cmspush",
		Short:         "Publish markdown posts to WordPress and Shopify",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newTestCmd(open),
		newBlogsCmd(open),
		newPushCmd(open),
		newCredentialCmd(),
	)
	return root
}

// withService opens the publisher for one command and closes it afterwards.
func withService(cmd *cobra.Command, open opener, fn func(ctx context.Context, svc service) (any, error)) (err error) {
	ctx := cmd.Context()
	svc, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, svc.Close())
	}()

	out, err := fn(ctx, svc)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func newTestCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "test <connection>",
		Short: "Check that a connection is reachable and its credentials are accepted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc service) (any, error) {
				return svc.Test(ctx, args[0])
			})
		},
	}
}

func newBlogsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "blogs <connection>",
		Short: "List the blogs of a Shopify store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc service) (any, error) {
				return svc.Blogs(ctx, args[0])
			})
		},
	}
}

func newPushCmd(open opener) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "push <connection> <file.md>",
		Short: "Create or update a post from a markdown file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := postfile.Load(args[1])
			if err != nil {
				return domain.FailWith(domain.KindValidation, err, "cannot read post")
			}
			return withService(cmd, open, func(ctx context.Context, svc service) (any, error) {
				return svc.Push(ctx, args[0], post, app.PushOptions{Force: force})
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "push even if this revision was already published")
	return cmd
}

func newCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Encode or decode stored WordPress credentials",
	}

	var username, password, apiKey string
	encode := &cobra.Command{
		Use:   "encode",
		Short: "Encode an application password or plugin key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := credentials.AppPassword(username, password)
			if apiKey != "" {
				c = credentials.PluginKey(apiKey)
			}
			encoded, err := credentials.Encode(c)
			if err != nil {
				return domain.FailWith(domain.KindValidation, err, "cannot encode credential")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return err
		},
	}
	encode.Flags().StringVar(&username, "username", "", "WordPress username")
	encode.Flags().StringVar(&password, "password", "", "WordPress application password")
	encode.Flags().StringVar(&apiKey, "api-key", "", "companion plugin api key")
	encode.MarkFlagsMutuallyExclusive("username", "api-key")
	encode.MarkFlagsOneRequired("username", "api-key")

	decode := &cobra.Command{
		Use:   "decode <value>",
		Short: "Show what a stored credential contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := credentials.Decode(args[0])
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"mode":      c.Mode,
				"username":  c.Username,
				"has_key":   c.APIKey != "",
				"connected": c.Connected(),
			})
		},
	}

	cmd.AddCommand(encode, decode)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
