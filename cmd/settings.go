package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayxworxfr/scada_web/internal/config"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/ayxworxfr/scada_web/pkg/utils"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage web and view settings files",
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create application directories and default settings files",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		force, _ := cmd.Flags().GetBool("force")

		dirs := config.NewAppDirectories(utils.GetAbsPath(dir))
		if err := dirs.Create(); err != nil {
			return errors.Wrap(err, "failed to create directories")
		}

		files := []struct {
			name string
			save func(string) error
		}{
			{settings.WebSettingsFileName, settings.NewWebSettings().SaveToFile},
			{settings.ViewSettingsFileName, settings.NewViewSettings().SaveToFile},
		}
		for _, f := range files {
			path := filepath.Join(dirs.ConfigDir, f.name)
			if fileExists(path) && !force {
				fmt.Printf("skip %s (exists)\n", path)
				continue
			}
			if err := f.save(path); err != nil {
				return err
			}
			fmt.Printf("write %s\n", path)
		}
		return nil
	},
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load settings files and report errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		dirs := config.NewAppDirectories(utils.GetAbsPath(dir))

		var result error
		ws := settings.NewWebSettings()
		if err := ws.LoadFromFile(filepath.Join(dirs.ConfigDir, settings.WebSettingsFileName)); err != nil {
			result = multierror.Append(result, err)
		} else {
			fmt.Printf("%s: %d plugin(s)\n", settings.WebSettingsFileName, len(ws.PluginFileNames))
		}

		vs := settings.NewViewSettings()
		if err := vs.LoadFromFile(filepath.Join(dirs.ConfigDir, settings.ViewSettingsFileName)); err != nil {
			result = multierror.Append(result, err)
		} else {
			fmt.Printf("%s: %d view(s), %d report(s)\n", settings.ViewSettingsFileName, len(vs.AllViewItems), len(vs.AllReports))
		}
		return result
	},
}

func init() {
	for _, c := range []*cobra.Command{settingsInitCmd, settingsCheckCmd} {
		c.Flags().String("dir", "web", "web application directory")
	}
	settingsInitCmd.Flags().Bool("force", false, "overwrite existing files")

	settingsCmd.AddCommand(settingsInitCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
