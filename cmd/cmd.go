// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Override the database file path",
		},
	}
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "id",
		Aliases:  []string{"u"},
		Usage:    "User id to operate on",
		Required: true,
	}
}

// setupCommand provisions the database schema and template
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize the database, run migrations and load the template",
		Flags: append(configFlags(),
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent migration instead",
			},
		),
		Action: r.Setup,
	}
}

// userCommand handles whole-snapshot operations
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Load, save and list user collections",
		Commands: []*cli.Command{
			{
				Name:  "load",
				Usage: "Load a user's full snapshot (provisions from the template on first access)",
				Flags: append(configFlags(),
					userFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON", Value: true},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
					&cli.BoolFlag{Name: "summary", Usage: "Print a human-readable summary instead of JSON"},
				),
				Action: r.UserLoad,
			},
			{
				Name:  "save",
				Usage: "Replace a user's entire snapshot from a JSON file",
				Flags: append(configFlags(),
					userFlag(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the snapshot JSON file",
						Required: true,
					},
				),
				Action: r.UserSave,
			},
			{
				Name:   "list",
				Usage:  "List known user ids (the template is excluded)",
				Flags:  configFlags(),
				Action: r.UserList,
			},
		},
	}
}

// progressCommand handles watch-progress merging
func progressCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Watch-progress operations",
		Commands: []*cli.Command{
			{
				Name:  "merge",
				Usage: "Shallow-merge a partial progress map over the stored one",
				Flags: append(configFlags(),
					userFlag(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to a JSON object mapping video id to progress",
						Required: true,
					},
				),
				Action: r.ProgressMerge,
			},
		},
	}
}

// playlistCommand handles playlist import workflows
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Playlist import operations",
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Add-only import: new playlist ids are appended, existing ids are skipped",
				Flags: append(configFlags(),
					userFlag(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the playlist file (object, playlists wrapper, or array)",
						Required: true,
					},
				),
				Action: r.PlaylistImport,
			},
			{
				Name:  "overwrite",
				Usage: "Replace one playlist's content in place, keeping its id",
				Flags: append(configFlags(),
					userFlag(),
					&cli.StringFlag{
						Name:     "playlist",
						Aliases:  []string{"p"},
						Usage:    "Playlist id to overwrite",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the replacement playlist file",
						Required: true,
					},
				),
				Action: r.PlaylistOverwrite,
			},
		},
	}
}

// tabCommand handles tab export/import
func tabCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tab",
		Usage: "Tab export and import",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Export one tab and its playlists to a document",
				Flags: append(configFlags(),
					userFlag(),
					&cli.IntFlag{
						Name:     "index",
						Aliases:  []string{"i"},
						Usage:    "Tab index to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (stdout when omitted)",
					},
					&cli.BoolFlag{Name: "markdown", Usage: "Render Markdown instead of JSON"},
				),
				Action: r.TabExport,
			},
			{
				Name:  "import",
				Usage: "Import a tab document: upsert its playlists, append its tab",
				Flags: append(configFlags(),
					userFlag(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the tab document",
						Required: true,
					},
				),
				Action: r.TabImport,
			},
		},
	}
}

// metaCommand handles the global video-metadata cache
func metaCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "meta",
		Usage: "Video metadata cache operations",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Store metadata records from a JSON file (object or array)",
				Flags: append(configFlags(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the metadata JSON file",
						Required: true,
					},
				),
				Action: r.MetaSet,
			},
			{
				Name:      "get",
				Usage:     "Fetch metadata records for the given video ids",
				ArgsUsage: "<video-id> [video-id ...]",
				Flags: append(configFlags(),
					&cli.BoolFlag{Name: "csv", Usage: "Output CSV instead of JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output"},
				),
				Action: r.MetaGet,
			},
		},
	}
}

// templateCommand handles template diagnostics
func templateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "Template tenant diagnostics",
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Report template state and seed document search paths",
				Flags:  configFlags(),
				Action: r.TemplateCheck,
			},
			{
				Name:   "reseed",
				Usage:  "Delete the template and reload it from the seed document",
				Flags:  configFlags(),
				Action: r.TemplateReseed,
			},
		},
	}
}
