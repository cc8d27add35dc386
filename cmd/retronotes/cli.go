package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"retronotes/internal/config"
	"retronotes/internal/errors"
	"retronotes/internal/note"
	"retronotes/internal/store"
	"retronotes/internal/suggest"
	tmpl "retronotes/internal/template"
	"retronotes/internal/web"
)

// cliEnv bundles the dependencies CLI commands operate on.
type cliEnv struct {
	store      *store.Store
	cfg        *config.Config
	suggester  *suggest.Client
	exportsDir string
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *cliEnv) *cli.App {
	app := &cli.App{
		Name:    "retronotes",
		Usage:   "Retro personal notes",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(env),
			fetchCmd(env),
			updateCmd(env),
			deleteCmd(env),
			pinCmd(env),
			tagCmd(env),
			listCmd(env),
			searchCmd(env),
			analyticsCmd(env),
			versionsCmd(env),
			restoreCmd(env),
			shareCmd(env),
			exportCmd(env),
			importCmd(env),
			templatesCmd(env),
			analyzeCmd(env),
			suggestCmd(env),
			serveCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Create a new note (body from --content, stdin, or a template)",
		ArgsUsage: "<title>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "Note body text"},
			&cli.StringFlag{Name: "theme", Usage: "Theme: default|retro|ocean|forest|sunset"},
			&cli.StringFlag{Name: "template", Usage: "Pre-fill from a template: journal|todo|meeting|study"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("title is required"))
			}
			title := strings.Join(c.Args().Slice(), " ")

			var blocks []note.Block
			switch {
			case c.String("template") != "":
				t, ok := tmpl.ByID(c.String("template"))
				if !ok {
					return outputError(errors.NewInvalidRequest("unknown template: " + c.String("template")))
				}
				blocks = t.Instantiate()
			case c.String("content") != "":
				blocks = note.TextBlocks(c.String("content"))
			case stdinHasData():
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				blocks = note.TextBlocks(text)
			}

			theme := note.Theme(c.String("theme"))
			if c.String("theme") != "" && !note.ValidTheme(theme) {
				return outputError(errors.NewInvalidRequest("unknown theme: " + c.String("theme")))
			}

			n, err := env.store.Add(store.AddInput{
				Title:  title,
				Blocks: blocks,
				Theme:  theme,
			})
			if err != nil {
				return outputError(err)
			}

			for _, tag := range parseTags(c.String("tags")) {
				env.store.AddTag(n.ID, tag)
			}
			n, _ = env.store.Get(n.ID)

			return outputJSON(n)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a note by ID",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("note ID is required"))
			}

			n, ok := env.store.Get(id)
			if !ok {
				return outputError(errors.NewNotFound(id))
			}
			return outputJSON(n)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a note (new body from --content or stdin)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "New body text"},
			&cli.StringFlag{Name: "theme", Usage: "New theme"},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("note ID is required"))
			}

			input := store.UpdateInput{}

			if title := c.String("title"); title != "" {
				input.Title = &title
			}
			if c.IsSet("content") {
				blocks := note.TextBlocks(c.String("content"))
				input.Blocks = &blocks
			} else if stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if text != "" {
					blocks := note.TextBlocks(text)
					input.Blocks = &blocks
				}
			}
			if c.IsSet("theme") {
				theme := note.Theme(c.String("theme"))
				if !note.ValidTheme(theme) {
					return outputError(errors.NewInvalidRequest("unknown theme: " + c.String("theme")))
				}
				input.Theme = &theme
			}

			n, ok := env.store.Update(id, input)
			if !ok {
				return outputError(errors.NewNotFound(id))
			}
			return outputJSON(n)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a note",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("note ID is required"))
			}

			deleted := env.store.Delete(id)
			return outputJSON(map[string]any{"id": id, "deleted": deleted})
		},
	}
}

// pinCmd creates the pin command.
func pinCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "pin",
		Usage:     "Toggle a note's pinned flag",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("note ID is required"))
			}

			if !env.store.TogglePin(id) {
				return outputError(errors.NewNotFound(id))
			}
			n, _ := env.store.Get(id)
			return outputJSON(map[string]any{"id": n.ID, "is_pinned": n.IsPinned})
		},
	}
}

// tagCmd creates the tag command.
func tagCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "Add a tag to a note (or remove with --remove)",
		ArgsUsage: "<id> <tag>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "remove", Aliases: []string{"r"}, Usage: "Remove the tag instead of adding"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("note ID and tag are required"))
			}
			id, tag := c.Args().Get(0), c.Args().Get(1)

			ok := false
			if c.Bool("remove") {
				ok = env.store.RemoveTag(id, tag)
			} else {
				ok = env.store.AddTag(id, tag)
			}
			if !ok {
				return outputError(errors.NewNotFound(id))
			}

			n, _ := env.store.Get(id)
			return outputJSON(map[string]any{"id": n.ID, "tags": n.Tags})
		},
	}
}

// listCmd creates the list command.
func listCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all notes, pinned first",
		Action: func(c *cli.Context) error {
			return outputJSON(map[string]any{"notes": env.store.List()})
		},
	}
}

// searchCmd creates the search command.
func searchCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search titles, content, and tags",
		ArgsUsage: "[query]",
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")
			return outputJSON(map[string]any{
				"query": query,
				"notes": env.store.Search(query),
			})
		},
	}
}

// analyticsCmd creates the analytics command.
func analyticsCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "analytics",
		Usage: "Show session analytics",
		Action: func(c *cli.Context) error {
			return outputJSON(env.store.Analytics())
		},
	}
}

// versionsCmd creates the versions command.
func versionsCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "versions",
		Usage:     "List a note's version history",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("note ID is required"))
			}

			n, ok := env.store.Get(id)
			if !ok {
				return outputError(errors.NewNotFound(id))
			}
			return outputJSON(map[string]any{"id": n.ID, "versions": n.Versions})
		},
	}
}

// restoreCmd creates the restore command.
func restoreCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Restore a note's content from a version",
		ArgsUsage: "<id> <version-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("note ID and version ID are required"))
			}
			id, versionID := c.Args().Get(0), c.Args().Get(1)

			if !env.store.RestoreVersion(id, versionID) {
				return outputError(errors.NewNotFound(id + "/" + versionID))
			}
			n, _ := env.store.Get(id)
			return outputJSON(n)
		},
	}
}

// shareCmd creates the share command.
func shareCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "share",
		Usage:     "Make a note public with a URL slug (or private with --off)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "off", Usage: "Make the note private again"},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("note ID is required"))
			}

			n, ok := env.store.SetPublic(id, !c.Bool("off"))
			if !ok {
				return outputError(errors.NewNotFound(id))
			}

			result := map[string]any{"id": n.ID, "is_public": n.IsPublic}
			if n.IsPublic {
				result["slug"] = n.Slug
				result["share_path"] = "/note/" + n.Slug
			}
			return outputJSON(result)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export all notes to a JSON backup file",
		ArgsUsage: "[path]",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				path = store.DefaultExportPath(env.exportsDir, time.Now())
			}

			result, err := env.store.Export(path, env.pathPolicy())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// importCmd creates the import command.
func importCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Replace all notes with the contents of a backup file",
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return outputError(errors.NewInvalidRequest("backup path is required"))
			}

			result, err := env.store.Import(path, env.pathPolicy())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// templatesCmd creates the templates command.
func templatesCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "templates",
		Usage: "List available note templates",
		Action: func(c *cli.Context) error {
			return outputJSON(map[string]any{"templates": tmpl.Catalog()})
		},
	}
}

// analyzeCmd creates the analyze command.
func analyzeCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Classify note content (by ID, or text from stdin)",
		ArgsUsage: "[id]",
		Action: func(c *cli.Context) error {
			// An existing note with empty content still classifies
			// (as "other"); only having no input at all is an error.
			if id := c.Args().First(); id != "" {
				n, ok := env.store.Get(id)
				if !ok {
					return outputError(errors.NewNotFound(id))
				}
				return outputJSON(tmpl.AnalyzeContent(n.PlainText()))
			}
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("provide a note ID or pipe text via stdin"))
			}
			text, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if text == "" {
				return outputError(errors.NewInvalidRequest("provide a note ID or pipe text via stdin"))
			}

			return outputJSON(tmpl.AnalyzeContent(text))
		},
	}
}

// suggestCmd creates the suggest command.
func suggestCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Request AI suggestions for a note",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "tone", Usage: "Detect the note's tone and a matching emoji instead"},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("note ID is required"))
			}

			n, ok := env.store.Get(id)
			if !ok {
				return outputError(errors.NewNotFound(id))
			}

			if c.Bool("tone") {
				result, err := env.suggester.DetectTone(context.Background(), n.PlainText())
				if err != nil {
					return outputError(err)
				}
				return outputJSON(result)
			}

			result, err := env.suggester.Suggest(context.Background(), n)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Bind address (defaults to config)"},
			&cli.IntFlag{Name: "port", Usage: "Port (defaults to config)"},
		},
		Action: func(c *cli.Context) error {
			bind := env.cfg.WebBind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := env.cfg.WebPort
			if c.IsSet("port") {
				port = c.Int("port")
			}

			srv := web.NewServer(env.store, env.cfg, Version, bind, port)
			return web.Run(srv)
		},
	}
}

func (env *cliEnv) pathPolicy() store.PathPolicy {
	return store.PathPolicy{ExportsDir: env.exportsDir, Cfg: env.cfg}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if nErr, ok := err.(*errors.NoteError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", nErr.Code, nErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
