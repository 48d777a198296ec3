package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsayram/life-wrapped-sub005/internal/locales"
)

var localesCmd = &cobra.Command{
	Use:   "locales",
	Short: "List the locale tags the catalog can resolve",
	Run: func(cmd *cobra.Command, args []string) {
		for _, locale := range locales.Supported() {
			fmt.Println(locale)
		}
	},
}
