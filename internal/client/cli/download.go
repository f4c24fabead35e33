package cli

import (
	"context"
	"os"

	"github.com/dmitrijs2005/assetorigin/internal/client/client"
	"github.com/spf13/cobra"
)

type fetchFunc func(ctx context.Context, c client.Client, arg string) (*client.Download, error)

func (a *App) getCmd() *cobra.Command {
	var ifNoneMatch string
	cmd := a.downloadCmd("get <asset-id>", "Download an asset's current bytes",
		func(ctx context.Context, c client.Client, id string) (*client.Download, error) {
			return c.Download(ctx, id, ifNoneMatch)
		})
	cmd.Flags().StringVar(&ifNoneMatch, "if-none-match", "", "entity tag of a cached copy")
	return cmd
}

func (a *App) getVersionCmd() *cobra.Command {
	return a.downloadCmd("get-version <version-id>", "Download a published version",
		func(ctx context.Context, c client.Client, id string) (*client.Download, error) {
			return c.DownloadVersion(ctx, id)
		})
}

func (a *App) getPrivateCmd() *cobra.Command {
	return a.downloadCmd("get-private <token>", "Download a private asset through an access token",
		func(ctx context.Context, c client.Client, token string) (*client.Download, error) {
			return c.DownloadPrivate(ctx, token)
		})
}

// downloadCmd writes the body to --output, or stdout when unset. Response
// metadata goes to stderr so the body can be piped.
func (a *App) downloadCmd(use, short string, fetch fetchFunc) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := fetch(cmd.Context(), a.client(), args[0])
			if err != nil {
				return err
			}

			cmd.PrintErrf("status: %d\netag: %s\ncache-control: %s\n", d.Status, d.ETag, d.CacheControl)
			if d.NotModified {
				return nil
			}

			if output == "" {
				_, err = a.out.Write(d.Body)
				return err
			}
			return os.WriteFile(output, d.Body, 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the body to this file")
	return cmd
}
