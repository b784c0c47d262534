package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
)

func newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List supported file types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EXTENSION\tNAME\tCATEGORY\tMIME TYPE")
			for _, ft := range domain.SupportedFileTypes() {
				fmt.Fprintf(tw, ".%s\t%s\t%s\t%s\n", ft.Extension, ft.Name, ft.Category, ft.MIMEType)
			}
			return tw.Flush()
		},
	}
}
