package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/client/client"
	"github.com/spf13/cobra"
)

func (a *App) uploadCmd() *cobra.Command {
	var (
		private  bool
		mimeType string
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file as a new asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			if mimeType == "" {
				mimeType = mime.TypeByExtension(filepath.Ext(path))
			}

			asset, err := a.client().Upload(cmd.Context(), client.UploadRequest{
				Filename:  filepath.Base(path),
				MimeType:  mimeType,
				IsPrivate: private,
				Body:      f,
			})
			if err != nil {
				return err
			}
			a.printAsset(asset)
			return nil
		},
	}
	cmd.Flags().BoolVar(&private, "private", false, "only serve the asset through access tokens")
	cmd.Flags().StringVar(&mimeType, "mime", "", "content type (guessed from the extension when empty)")
	return cmd
}

func (a *App) publishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <asset-id>",
		Short: "Freeze the asset's current bytes as a new immutable version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client().Publish(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printf("version:  %s\n", res.NewVersionID)
			a.printf("url:      %s/assets/public/%s\n", a.config.ServerURL, res.NewVersionID)
			a.printAsset(&res.Asset)
			return nil
		},
	}
}

func (a *App) tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <asset-id>",
		Short: "Issue an access token for a private asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl < 0 {
				return fmt.Errorf("ttl must not be negative")
			}
			tok, err := a.client().IssueToken(cmd.Context(), args[0], ttl)
			if err != nil {
				return err
			}
			a.printf("token:    %s\n", tok.Token)
			a.printf("expires:  %s\n", formatTime(tok.ExpiresAt))
			a.printf("url:      %s/assets/private/%s\n", a.config.ServerURL, tok.Token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (server default when zero)")
	return cmd
}

func (a *App) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the origin answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().Health(cmd.Context()); err != nil {
				return err
			}
			a.printf("ok\n")
			return nil
		},
	}
}

func (a *App) printAsset(asset *client.Asset) {
	a.printf("id:       %s\n", asset.ID)
	a.printf("filename: %s\n", asset.Filename)
	a.printf("type:     %s\n", asset.MimeType)
	a.printf("size:     %d\n", asset.SizeBytes)
	a.printf("etag:     %s\n", asset.ETag)
	a.printf("private:  %t\n", asset.IsPrivate)
	if asset.CurrentVersionID != nil {
		a.printf("current:  %s\n", *asset.CurrentVersionID)
	}
}
