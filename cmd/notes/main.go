package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"notes-go/internal/app"
	"notes-go/internal/config"
	"notes-go/internal/storage"
	"notes-go/internal/ui"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// withApp reads the config, creates a NotesApp for the operation, runs fn and
// closes the app. operation identifies the CLI command being run (e.g.
// "AddNote", "ListNotes").
func withApp(cmd *cobra.Command, operation string, fn func(ctx context.Context, a *app.NotesApp) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := app.NewNotesApp(ctx, cfg, operation, readPassphrase, os.Stderr)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}

	runErr := fn(ctx, a)
	return errors.Join(runErr, a.Close(ctx))
}

// confirmOrSkip returns true when the action may proceed.
func confirmOrSkip(cmd *cobra.Command, question string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	ok, err := confirm(question)
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Println("Cancelled.")
	}
	return ok, nil
}

// optionalFlag returns a pointer to the flag's value when it was set.
func optionalFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

var rootCmd = &cobra.Command{
	Use:           "notes",
	Short:         "Local note store",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Configuration initialized at %s", defaults["config_path"])))
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Storage:  %s (%s)\n", cfg.Storage.Type, cfg.Storage.Dir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Seed:       %t\n", cfg.Seed())
		fmt.Printf("Storage:    %s\n", cfg.Storage.Type)
		if cfg.Storage.Format != "" {
			fmt.Printf("Format:     %s\n", cfg.Storage.Format)
		}
		encryption := cfg.Encryption.Type
		if encryption == "" {
			encryption = "none"
		}
		fmt.Printf("Encryption: %s\n", encryption)
		return nil
	},
}

// key command
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the encryption key pair",
}

var keyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a passphrase-protected key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		kr := storage.NewKeyring(cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath)
		if kr.IsConfigured() {
			return fmt.Errorf("key pair already exists at %s", cfg.Encryption.PrivateKeyPath)
		}
		pass, err := readNewPassphrase()
		if err != nil {
			return err
		}
		if err := kr.Setup(pass); err != nil {
			return fmt.Errorf("creating key pair: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Key pair written to %s", cfg.Encryption.PublicKeyPath)))
		if !cfg.Encryption.Enabled() {
			fmt.Println(`Set type = "age" under [encryption] to encrypt new writes.`)
		}
		return nil
	},
}

// add command
var addCmd = &cobra.Command{
	Use:   "add [TITLE]",
	Short: "Create a note",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contentFlag, _ := cmd.Flags().GetString("content")
		fromStdin, _ := cmd.Flags().GetBool("stdin")
		category, _ := cmd.Flags().GetString("category")
		tags, _ := cmd.Flags().GetStringSlice("tag")

		title := ""
		if len(args) > 0 {
			title = args[0]
		}
		content, err := readContent(contentFlag, fromStdin)
		if err != nil {
			return err
		}

		return withApp(cmd, "AddNote", func(ctx context.Context, a *app.NotesApp) error {
			n, err := a.AddNote(ctx, title, content, category, tags)
			if err != nil {
				return fmt.Errorf("creating note: %w", err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("Created note %s", ui.ShortID(n.ID))))
			return nil
		})
	},
}

// edit command
var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit a note",
	Long:  "Edit a note's title, content, category or tags. Each --tag toggles that tag.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fromStdin, _ := cmd.Flags().GetBool("stdin")
		tags, _ := cmd.Flags().GetStringSlice("tag")

		e := app.NoteEdit{
			Title:      optionalFlag(cmd, "title"),
			Content:    optionalFlag(cmd, "content"),
			Category:   optionalFlag(cmd, "category"),
			ToggleTags: tags,
		}
		if fromStdin {
			content, err := readContent("", true)
			if err != nil {
				return err
			}
			e.Content = &content
		}

		return withApp(cmd, "EditNote", func(ctx context.Context, a *app.NotesApp) error {
			n, err := a.EditNote(ctx, args[0], e)
			if err != nil {
				return fmt.Errorf("editing note: %w", err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("Saved note %s", ui.ShortID(n.ID))))
			return nil
		})
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ShowNote", func(ctx context.Context, a *app.NotesApp) error {
			n, err := a.ResolveNote(args[0])
			if err != nil {
				return err
			}
			fmt.Print(ui.FormatNoteHeader(n, a.Registry()))
			fmt.Print(ui.FormatNoteContent(n.Content))
			return nil
		})
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Long:  "List notes, pinned first, optionally filtered by category, tag and a case-insensitive search.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var f app.ListFilter
		f.Category, _ = cmd.Flags().GetString("category")
		f.Tag, _ = cmd.Flags().GetString("tag")
		f.Query, _ = cmd.Flags().GetString("search")

		return withApp(cmd, "ListNotes", func(ctx context.Context, a *app.NotesApp) error {
			list, err := a.ListNotes(f)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No notes found.")
				return nil
			}
			for _, n := range list {
				fmt.Print(ui.FormatNoteListItem(n, a.Registry()))
			}
			return nil
		})
	},
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "DeleteNote", func(ctx context.Context, a *app.NotesApp) error {
			n, err := a.ResolveNote(args[0])
			if err != nil {
				return err
			}
			ok, err := confirmOrSkip(cmd, fmt.Sprintf("Delete note %q (%s)?", n.DisplayTitle(), ui.ShortID(n.ID)))
			if err != nil || !ok {
				return err
			}
			if _, err := a.DeleteNote(ctx, n.ID); err != nil {
				return fmt.Errorf("deleting note: %w", err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("Deleted note %s", ui.ShortID(n.ID))))
			return nil
		})
	},
}

// pin command
var pinCmd = &cobra.Command{
	Use:   "pin ID",
	Short: "Pin or unpin a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "TogglePin", func(ctx context.Context, a *app.NotesApp) error {
			n, err := a.TogglePin(ctx, args[0])
			if err != nil {
				return fmt.Errorf("toggling pin: %w", err)
			}
			state := "Unpinned"
			if n.IsPinned {
				state = "Pinned"
			}
			fmt.Println(ui.Success(fmt.Sprintf("%s note %s", state, ui.ShortID(n.ID))))
			return nil
		})
	},
}

// reorder command
var reorderCmd = &cobra.Command{
	Use:   "reorder ID...",
	Short: "Move notes to the front in the given order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ReorderNotes", func(ctx context.Context, a *app.NotesApp) error {
			if err := a.ReorderNotes(ctx, args); err != nil {
				return fmt.Errorf("reordering notes: %w", err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("Reordered %d note(s)", len(args))))
			return nil
		})
	},
}

// category command
var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"categories"},
	Short:   "Manage categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")
		parent, _ := cmd.Flags().GetString("parent")

		return withApp(cmd, "AddCategory", func(ctx context.Context, a *app.NotesApp) error {
			c, err := a.AddCategory(ctx, args[0], color, parent)
			if err != nil {
				return fmt.Errorf("creating category: %w", err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("Created category %s", ui.Swatch(c.Color, c.Name))))
			return nil
		})
	},
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories with note counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ListCategories", func(ctx context.Context, a *app.NotesApp) error {
			colors := make(map[string]string)
			for _, c := range a.Registry().Categories() {
				colors[c.ID] = c.Color
			}
			counts := a.Registry().CategoryCounts()
			if len(counts) == 0 {
				fmt.Println("No categories.")
				return nil
			}
			fmt.Print(ui.FormatLabelList(counts, colors))
			return nil
		})
	},
}

var categoryRenameCmd = &cobra.Command{
	Use:   "rename CATEGORY NAME",
	Short: "Rename a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[1]
		color := optionalFlag(cmd, "color")

		return withApp(cmd, "EditCategory", func(ctx context.Context, a *app.NotesApp) error {
			c, err := a.EditCategory(ctx, args[0], &name, color)
			if err != nil {
				return fmt.Errorf("renaming category: %w", err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("Renamed category to %s", ui.Swatch(c.Color, c.Name))))
			return nil
		})
	},
}

var categoryRmCmd = &cobra.Command{
	Use:   "rm CATEGORY",
	Short: "Delete a category",
	Long:  "Delete a category. Notes filed under it are kept and become uncategorized.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "DeleteCategory", func(ctx context.Context, a *app.NotesApp) error {
			c, err := a.ResolveCategory(args[0])
			if err != nil {
				return err
			}
			ok, err := confirmOrSkip(cmd, fmt.Sprintf("Delete category %q?", c.Name))
			if err != nil || !ok {
				return err
			}
			if _, err := a.DeleteCategory(ctx, c.ID); err != nil {
				return fmt.Errorf("deleting category: %w", err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("Deleted category %s", c.Name)))
			return nil
		})
	},
}

// tag command
var tagCmd = &cobra.Command{
	Use:     "tag",
	Aliases: []string{"tags"},
	Short:   "Manage tags",
}

var tagAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")

		return withApp(cmd, "AddTag", func(ctx context.Context, a *app.NotesApp) error {
			t, err := a.AddTag(ctx, args[0], color)
			if err != nil {
				return fmt.Errorf("creating tag: %w", err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("Created tag %s", ui.Swatch(t.Color, t.Name))))
			return nil
		})
	},
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags with note counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ListTags", func(ctx context.Context, a *app.NotesApp) error {
			colors := make(map[string]string)
			for _, t := range a.Registry().Tags() {
				colors[t.ID] = t.Color
			}
			counts := a.Registry().TagCounts()
			if len(counts) == 0 {
				fmt.Println("No tags.")
				return nil
			}
			fmt.Print(ui.FormatLabelList(counts, colors))
			return nil
		})
	},
}

var tagRenameCmd = &cobra.Command{
	Use:   "rename TAG NAME",
	Short: "Rename a tag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[1]
		color := optionalFlag(cmd, "color")

		return withApp(cmd, "EditTag", func(ctx context.Context, a *app.NotesApp) error {
			t, err := a.EditTag(ctx, args[0], &name, color)
			if err != nil {
				return fmt.Errorf("renaming tag: %w", err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("Renamed tag to %s", ui.Swatch(t.Color, t.Name))))
			return nil
		})
	},
}

var tagRmCmd = &cobra.Command{
	Use:   "rm TAG",
	Short: "Delete a tag",
	Long:  "Delete a tag and remove it from every note.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "DeleteTag", func(ctx context.Context, a *app.NotesApp) error {
			t, err := a.ResolveTag(args[0])
			if err != nil {
				return err
			}
			ok, err := confirmOrSkip(cmd, fmt.Sprintf("Delete tag %q?", t.Name))
			if err != nil || !ok {
				return err
			}
			if _, err := a.DeleteTag(ctx, t.ID); err != nil {
				return fmt.Errorf("deleting tag: %w", err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("Deleted tag %s", t.Name)))
			return nil
		})
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// key subcommands
	keyCmd.AddCommand(keyInitCmd)

	// note commands
	addCmd.Flags().StringP("content", "c", "", "Note content")
	addCmd.Flags().Bool("stdin", false, "Read content from stdin")
	addCmd.Flags().String("category", "", "Category id or name")
	addCmd.Flags().StringSliceP("tag", "t", nil, "Tag id or name (repeatable)")

	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().StringP("content", "c", "", "New content")
	editCmd.Flags().Bool("stdin", false, "Read new content from stdin")
	editCmd.Flags().String("category", "", `Category id or name ("" for none)`)
	editCmd.Flags().StringSliceP("tag", "t", nil, "Toggle a tag id or name (repeatable)")
	editCmd.MarkFlagsMutuallyExclusive("content", "stdin")

	listCmd.Flags().String("category", "", "Only notes in this category")
	listCmd.Flags().StringP("tag", "t", "", "Only notes with this tag")
	listCmd.Flags().StringP("search", "s", "", "Case-insensitive search over title, content, category and tags")

	rmCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")

	// category subcommands
	categoryCmd.AddCommand(categoryAddCmd, categoryListCmd, categoryRenameCmd, categoryRmCmd)
	categoryAddCmd.Flags().String("color", "", "Color as #RRGGBB")
	categoryAddCmd.Flags().String("parent", "", "Parent category id or name")
	categoryRenameCmd.Flags().String("color", "", "New color as #RRGGBB")
	categoryRmCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")

	// tag subcommands
	tagCmd.AddCommand(tagAddCmd, tagListCmd, tagRenameCmd, tagRmCmd)
	tagAddCmd.Flags().String("color", "", "Color as #RRGGBB")
	tagRenameCmd.Flags().String("color", "", "New color as #RRGGBB")
	tagRmCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")

	// root commands
	rootCmd.AddCommand(configCmd, keyCmd)
	rootCmd.AddCommand(addCmd, editCmd, showCmd, listCmd, rmCmd, pinCmd, reorderCmd)
	rootCmd.AddCommand(categoryCmd, tagCmd)
}
