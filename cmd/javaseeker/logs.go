package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"javaseeker/internal/build"
)

var logsList bool

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Read archived logs",
}

var logsBuildCmd = &cobra.Command{
	Use:   "build <project>",
	Short: "Print the full output of a project's latest build",
	Long: `Print the full output of a project's latest build.

Build output is archived zstd-compressed under <base>/build-logs/<project>/;
only the first bytes of a failed build appear in the regular log.

Examples:
  javaseeker logs build shop
  javaseeker logs build shop --list`,
	Args: cobra.ExactArgs(1),
	RunE: runLogsBuild,
}

func init() {
	logsBuildCmd.Flags().BoolVar(&logsList, "list", false, "List the archived builds instead of printing the newest")
	logsCmd.AddCommand(logsBuildCmd)
	rootCmd.AddCommand(logsCmd)
}

func runLogsBuild(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	archive := e.buildLogs()

	if logsList {
		files, err := archive.List(args[0])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Printf("No archived builds for %s.\n", args[0])
			return nil
		}
		for _, f := range files {
			fmt.Println(filepath.Base(f))
		}
		return nil
	}

	path, err := archive.Latest(args[0])
	if errors.Is(err, build.ErrNoArchive) {
		fmt.Printf("No archived builds for %s.\n", args[0])
		return nil
	}
	if err != nil {
		return err
	}
	r, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Fprintf(os.Stderr, "==> %s\n", path)
	_, err = io.Copy(os.Stdout, r)
	return err
}
