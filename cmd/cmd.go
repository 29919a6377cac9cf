// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and storage.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize client storage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (default: $MUSICBOX_CONFIG or config.toml)",
			},
			&cli.StringFlag{
				Name:  "storage",
				Usage: "Storage database path (overrides storage.path)",
			},
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the latest storage migration instead",
			},
		},
		Action: r.Setup,
	}
}

// registerCommand creates an account
func registerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in when the server returns a token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Account password (6+ characters)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "confirm",
				Usage:    "Repeat the password",
				Required: true,
			},
		},
		Action: r.Register,
	}
}

// loginCommand signs in
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and persist the session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Account password",
				Required: true,
			},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the persisted session",
		Action: r.Logout,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show session state, API base URL and backend health",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Status,
	}
}

// songsCommand handles library operations
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "songs",
		Aliases: []string{"library", "lib"},
		Usage:   "Library operations",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List songs in your library",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output normalized songs as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: table, csv or markdown",
						Value:   "table",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the listing to a file instead of stdout",
					},
				},
				Action: r.SongsList,
			},
			{
				Name:  "upload",
				Usage: "Upload an mp3, title and artist prefilled from its tags",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Song title (defaults to the title tag or file name)",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Song artist (defaults to the artist tag)",
					},
				},
				Action: r.SongsUpload,
			},
			{
				Name:  "upload-dir",
				Usage: "Upload every mp3 under a directory",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "dir"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Concurrent uploads (max 10)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Uploads started per second",
					},
					&cli.StringFlag{
						Name:  "manifest",
						Usage: "Write a JSON summary to this path",
					},
				},
				Action: r.SongsUploadDir,
			},
			{
				Name:  "stream-url",
				Usage: "Print the stream URL for a song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.SongsStreamURL,
			},
		},
	}
}

func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Stream a song to the speaker until it ends",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.Play,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls using the current session",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the response",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with a JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive library and player",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file used while the TUI is running",
			},
		},
		Action: r.TUI,
	}
}
