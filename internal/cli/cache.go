package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hapaudit/internal/config"
	"github.com/matzehuels/hapaudit/pkg/cache"
	"github.com/matzehuels/hapaudit/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local report and download cache",
	}
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePruneCommand())
	cmd.AddCommand(c.cachePathCommand())
	return cmd
}

// cacheDir returns the file cache directory: cache.dir when configured,
// otherwise ~/.cache/hapaudit.
func (c *CLI) cacheDir() (string, error) {
	if dir := c.config().Cache.Dir; dir != "" {
		return dir, nil
	}
	dir, err := config.CacheDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "get cache dir")
	}
	return dir, nil
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached reports, graphs and downloads",
		Long: `Clear removes every file under the cache directory. Redis caches are not
touched; expire them on the server instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.ErrOrStderr()
			dir, err := c.cacheDir()
			if err != nil {
				return err
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo(w, "Cache is empty")
				return nil
			}
			n, err := clearDir(dir)
			if err != nil {
				return err
			}
			printSuccess(w, "Cleared %d cached entries", n)
			printDetail(w, "Directory: %s", dir)
			return nil
		},
	}
}

// clearDir removes the files below dir, then the emptied subdirectories,
// and returns the number of files removed. dir itself is kept.
func clearDir(dir string) (int, error) {
	count := 0
	var dirs []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || path == dir {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
			return nil
		}
		if os.Remove(path) == nil {
			count++
		}
		return nil
	})
	if err != nil {
		return count, errors.Wrap(errors.ErrCodeInvalidPath, err, "walk %s", dir)
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		os.Remove(dirs[i])
	}
	return count, nil
}

func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired and unreadable cache entries",
		Long: `Prune drops report and graph entries whose TTL has passed, along with
entries that can no longer be decoded. Live entries and downloads stay.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.ErrOrStderr()
			dir, err := c.cacheDir()
			if err != nil {
				return err
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo(w, "Cache is empty")
				return nil
			}
			cch, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			defer cch.Close()
			n, err := cch.(*cache.FileCache).Prune(cmd.Context())
			if err != nil {
				return err
			}
			printSuccess(w, "Pruned %d expired entries", n)
			printDetail(w, "Directory: %s", dir)
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
