package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"stories/internal/catalog"
	"stories/internal/config"
	"stories/internal/scan"
	"stories/internal/service"
)

var (
	configPath    string
	dbPathFlag    string
	durationFlag  time.Duration
	holdDelayFlag time.Duration
	tagFlag       string
	shuffleFlag   bool

	cfg   config.Config
	store *catalog.Catalog
	svc   *service.Service
)

func cliLogger(msg string) {
	log.Printf("[stories-cli] %s", msg)
}

// ServiceFactory opens the catalog in dbDir and builds the service on top of
// it. Tests inject their own.
type ServiceFactory func(dbDir string, logger catalog.LoggerFunc) (*service.Service, *catalog.Catalog, error)

func settings(cmd *cobra.Command) (config.Config, error) {
	c, err := config.Load(configPath)
	if err != nil {
		return c, err
	}
	flags := cmd.Flags()
	if flags.Changed("duration") {
		if durationFlag <= 0 {
			return c, fmt.Errorf("--duration must be positive")
		}
		c.Duration = durationFlag
	}
	if flags.Changed("hold-delay") {
		if holdDelayFlag <= 0 {
			return c, fmt.Errorf("--hold-delay must be positive")
		}
		c.HoldDelay = holdDelayFlag
	}
	if flags.Changed("shuffle") {
		c.Shuffle = shuffleFlag
	}
	if dbPathFlag != "" {
		c.DBDir = dbPathFlag
	}
	return c, nil
}

func absArg(p string) (string, error) {
	return filepath.Abs(p)
}

// NewRootCmd creates the root command. getService is called before every
// subcommand so tests can point the CLI at a temporary catalog.
func NewRootCmd(getService ServiceFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stories-cli",
		Short:         "Stories CLI - play slideshows and manage the catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = settings(cmd); err != nil {
				return err
			}
			svc, store, err = getService(cfg.DBDir, cliLogger)
			if err != nil {
				return fmt.Errorf("failed to initialize service: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if store != nil {
				store.Close()
				store = nil
			}
		},
	}

	rootCmd.AddCommand(newTagCmd(), newDurationCmd())

	rootCmd.AddCommand(&cobra.Command{
		Use:   "find-by-tag [tag]",
		Short: "List items with a given tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := svc.ListItemsForTag(args[0])
			if err != nil {
				return err
			}
			if len(items) == 0 {
				cmd.Printf("No items found for tag '%s'.\n", args[0])
				return nil
			}
			for _, item := range items {
				cmd.Println(item)
			}
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list-all-tags",
		Short: "List all tags with item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := svc.ListAllTags()
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				cmd.Println("No tags found in the database.")
				return nil
			}
			for _, tag := range tags {
				cmd.Printf("%s (%d)\n", tag.Name, tag.Count)
			}
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "replace-tag [old] [new]",
		Short: "Replace an old tag with a new tag on every item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.ReplaceTag(args[0], args[1]); err != nil {
				return err
			}
			cmd.Printf("Replaced tag '%s' with '%s'.\n", args[0], args[1])
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove entries for missing files and orphaned tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, tags, err := svc.CleanDatabase()
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d missing files and %d orphaned tags.\n", files, tags)
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list [directory]",
		Short: "Print the playlist of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadPlaylist(args[0])
			if err != nil {
				return err
			}
			for i, e := range entries {
				d := "default"
				if e.Duration > 0 {
					d = e.Duration.String()
				}
				cmd.Printf("%3d  %-5s  %-8s  %s\n", i+1, e.Kind, d, e.Path)
			}
			return nil
		},
	})

	rootCmd.AddCommand(newExportCmd(), newPlayCmd(), newServeCmd())

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultPath, "Path to the settings file")
	pf.StringVar(&dbPathFlag, "dbpath", "", "Directory of the catalog database")
	pf.DurationVar(&durationFlag, "duration", config.DefaultDuration, "Display time of items without their own length")
	pf.DurationVar(&holdDelayFlag, "hold-delay", config.DefaultHoldDelay, "Press length that counts as a hold")
	pf.StringVar(&tagFlag, "tag", "", "Only play items carrying this tag")
	pf.BoolVar(&shuffleFlag, "shuffle", false, "Shuffle the playlist")

	return rootCmd
}

func loadPlaylist(dir string) ([]service.Entry, error) {
	dir, err := absArg(dir)
	if err != nil {
		return nil, err
	}
	return svc.LoadPlaylist(dir, service.PlaylistOptions{
		Tag:     tagFlag,
		Order:   cfg.Order,
		Shuffle: cfg.Shuffle,
		Seed:    time.Now().UnixNano(),
	})
}

// exportedItem is one playlist position in the YAML export.
type exportedItem struct {
	Path     string   `yaml:"path"`
	Kind     string   `yaml:"kind"`
	Captured string   `yaml:"captured,omitempty"`
	Duration string   `yaml:"duration,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
}

type exportedPlaylist struct {
	Directory string         `yaml:"directory"`
	Default   string         `yaml:"defaultDuration"`
	Items     []exportedItem `yaml:"items"`
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [directory]",
		Short: "Write the playlist of a directory as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := absArg(args[0])
			if err != nil {
				return err
			}
			entries, err := loadPlaylist(dir)
			if err != nil {
				return err
			}
			doc := exportedPlaylist{Directory: dir, Default: cfg.Duration.String()}
			for _, e := range entries {
				item := exportedItem{Path: e.Path, Kind: e.Kind.String()}
				if !e.Captured.IsZero() {
					item.Captured = e.Captured.Format(time.RFC3339)
				}
				if e.Duration > 0 {
					item.Duration = e.Duration.String()
				}
				if item.Tags, err = svc.ListTagsForItem(e.Path); err != nil {
					return err
				}
				doc.Items = append(doc.Items, item)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("failed to encode playlist: %w", err)
			}
			return enc.Close()
		},
	}
}

func newTagCmd() *cobra.Command {
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Add, remove or list the tags of an item",
	}

	tagCmd.AddCommand(&cobra.Command{
		Use:   "add [item] [tag...]",
		Short: "Add tags to an item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absArg(args[0])
			if err != nil {
				return err
			}
			if err := svc.AddTagsToItem(path, args[1:]); err != nil {
				return err
			}
			for _, tag := range args[1:] {
				cmd.Printf("Added tag '%s' to %s\n", tag, path)
			}
			return nil
		},
	})

	tagCmd.AddCommand(&cobra.Command{
		Use:   "remove [item] [tag...]",
		Short: "Remove tags from an item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absArg(args[0])
			if err != nil {
				return err
			}
			if err := svc.RemoveTagsFromItem(path, args[1:]); err != nil {
				return err
			}
			for _, tag := range args[1:] {
				cmd.Printf("Removed tag '%s' from %s\n", tag, path)
			}
			return nil
		},
	})

	tagCmd.AddCommand(&cobra.Command{
		Use:   "list [item]",
		Short: "List the tags of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absArg(args[0])
			if err != nil {
				return err
			}
			tags, err := svc.ListTagsForItem(path)
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				cmd.Printf("No tags for %s\n", path)
				return nil
			}
			cmd.Println(strings.Join(tags, ", "))
			return nil
		},
	})

	return tagCmd
}

func newDurationCmd() *cobra.Command {
	durationCmd := &cobra.Command{
		Use:   "duration",
		Short: "Manage per-item display times",
	}

	durationCmd.AddCommand(&cobra.Command{
		Use:   "set [item] [duration]",
		Short: "Show an item for a fixed time, e.g. 8s",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absArg(args[0])
			if err != nil {
				return err
			}
			d, err := time.ParseDuration(args[1])
			if err != nil {
				return fmt.Errorf("invalid duration '%s': %w", args[1], err)
			}
			if err := svc.SetItemDuration(path, d); err != nil {
				return err
			}
			cmd.Printf("%s will show for %s\n", path, d)
			return nil
		},
	})

	durationCmd.AddCommand(&cobra.Command{
		Use:   "clear [item]",
		Short: "Return an item to the default display time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absArg(args[0])
			if err != nil {
				return err
			}
			if err := svc.ClearItemDuration(path); err != nil {
				return err
			}
			cmd.Printf("%s uses the default duration\n", path)
			return nil
		},
	})

	durationCmd.AddCommand(&cobra.Command{
		Use:   "show [item]",
		Short: "Print the display time of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absArg(args[0])
			if err != nil {
				return err
			}
			d, ok, err := svc.ItemDuration(path)
			if err != nil {
				return err
			}
			if !ok {
				cmd.Printf("%s: default (%s)\n", path, cfg.Duration)
				return nil
			}
			cmd.Printf("%s: %s\n", path, d)
			return nil
		},
	})

	return durationCmd
}

func main() {
	getService := func(dbDir string, logger catalog.LoggerFunc) (*service.Service, *catalog.Catalog, error) {
		c, err := catalog.Open(dbDir, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		return service.NewService(c, scan.DirScanner{}, logger), c, nil
	}
	if err := NewRootCmd(getService).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
