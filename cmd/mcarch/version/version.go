package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcarch/mcarch-editor/internal/constants"
	"github.com/mcarch/mcarch-editor/internal/environment"
	"github.com/mcarch/mcarch-editor/internal/i18n"
)

func Command() *cobra.Command {
	versionCmd := &cobra.Command{
		Use: "version",
		Short: i18n.T("cmd.version.short", i18n.Tvars{
			Data: &i18n.TData{"appName": constants.AppName},
		}),
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), environment.AppVersion())
		},
	}

	return versionCmd
}
