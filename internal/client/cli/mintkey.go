package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/server/auth"
	"github.com/dmitrijs2005/assetorigin/internal/shared"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is swapped in tests.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

func (a *App) mintKeyCmd() *cobra.Command {
	var (
		secret   string
		operator string
		validity time.Duration
	)
	cmd := &cobra.Command{
		Use:   "mint-key",
		Short: "Sign a management token with the server's secret",
		Long: "Sign an HS256 management token. The secret is read from --secret or,\n" +
			"when that is empty, prompted for without echo.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if validity <= 0 {
				return errors.New("validity must be positive")
			}

			key := []byte(secret)
			if len(key) == 0 {
				cmd.PrintErr("Enter management secret: ")
				b, err := readPassword()
				cmd.PrintErrln()
				if err != nil {
					return fmt.Errorf("read secret: %w", err)
				}
				key = b
			}
			defer shared.WipeByteArray(key)

			if len(key) == 0 {
				return errors.New("empty secret")
			}

			token, err := auth.GenerateToken(operator, key, validity)
			if err != nil {
				return err
			}
			a.printf("%s\n", token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "management secret (prompted when empty)")
	cmd.Flags().StringVar(&operator, "operator", "assetctl", "operator name stamped into the token")
	cmd.Flags().DurationVar(&validity, "validity", 24*time.Hour, "token lifetime")
	return cmd
}
