package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"gallery/internal/server/config"
	"gallery/internal/server/service"
	"gallery/internal/server/storage"
)

// app holds state shared by subcommands once flags are parsed.
type app struct {
	root  string
	store *storage.FileSystemStore
	svc   *service.GalleryService
}

// newRootCmd builds the gallery command tree.
func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "gallery",
		Short: "Manage the media gallery storage directly",
		Long: "gallery works on the storage directory the server uses, without\n" +
			"going through HTTP. Run it on the host that owns the files.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Log to stderr so command output stays parseable
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: slog.LevelWarn,
			})))
			a.store = storage.NewFileSystemStore(a.root)
			a.svc = service.NewGalleryService(a.store, 0)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.root, "root", defaultRoot(), "Storage directory (defaults to STORAGE_PATH)")

	rootCmd.AddCommand(
		newListCmd(a),
		newVisibilityCmd(a, true),
		newVisibilityCmd(a, false),
		newDeleteCmd(a),
		newExportCmd(a),
		newHashPasswordCmd(),
	)
	return rootCmd
}

func defaultRoot() string {
	cfg, err := config.Load()
	if err != nil {
		if p := os.Getenv("STORAGE_PATH"); p != "" {
			return p
		}
		return "./uploads"
	}
	return cfg.StoragePath
}
