package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"sitenav/internal/urlnorm"
)

var normalizeBase string

var normalizeCmd = &cobra.Command{
	Use:   "normalize <url>...",
	Short: "Print the comparison form of each URL",
	Long: `Print the normalized form used to decide whether two links point at
the same page. Scheme and host are lower-cased, the default port is
dropped, query and fragment are removed, and a trailing index.html is
folded into its directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := baseURL(normalizeBase)
		if err != nil {
			return err
		}
		for _, raw := range args {
			n, err := urlnorm.Normalize(base, raw)
			if err != nil {
				return fmt.Errorf("normalize %q: %w", raw, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeBase, "base", "", "base URL relative references resolve against")
	rootCmd.AddCommand(normalizeCmd)
}

func baseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --base: %w", err)
	}
	return u, nil
}
