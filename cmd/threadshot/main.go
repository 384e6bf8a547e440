// Package main provides the CLI entry point for threadshot.
package main

import (
	"fmt"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/threadshot/pkg/server"
	"github.com/user/threadshot/pkg/threadshot"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "threadshot",
		Usage:   l10n.T("Render conversation threads to PNG images"),
		Version: version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			{
				Name:      "render",
				Usage:     l10n.T("Render a thread from a posts file"),
				ArgsUsage: "POST_ID|URL",
				Flags:     append(threadFlags(), outputFlags(true)...),
				Action:    renderAction,
			},
			{
				Name:      "html",
				Usage:     l10n.T("Render a ready-made HTML document"),
				ArgsUsage: "FILE",
				Flags:     outputFlags(true),
				Action:    htmlAction,
			},
			{
				Name:      "markup",
				Usage:     l10n.T("Print the HTML generated for a thread"),
				ArgsUsage: "POST_ID|URL",
				Flags: append(threadFlags(), &cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   l10n.T("Write to a file instead of standard output"),
				}),
				Action: markupAction,
			},
			{
				Name:  "serve",
				Usage: l10n.T("Start the HTTP API"),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: l10n.F("Listen address (default: %s)", server.DefaultAddr)},
					&cli.StringFlag{Name: "posts", Usage: l10n.T("Posts file (YAML or JSON)")},
				},
				Action: serveAction,
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{
			Name:    "preset",
			Aliases: []string{"p"},
			Usage:   l10n.F("Device preset (%s, %s)", threadshot.PresetDesktop, threadshot.PresetMobile),
		},

		// Page emulation
		&cli.IntFlag{Name: "viewport-width", Usage: l10n.T("Browser viewport width")},
		&cli.IntFlag{Name: "viewport-height", Usage: l10n.T("Browser viewport height")},
		&cli.Float64Flag{Name: "scale", Usage: l10n.T("Device scale factor (mobile emulation only)")},
		&cli.StringFlag{Name: "color-scheme", Usage: l10n.T("Color scheme (dark, light, no-preference)")},
		&cli.StringFlag{Name: "locale", Usage: l10n.T("Locale, e.g. en-US")},
		&cli.StringFlag{Name: "timezone", Usage: l10n.T("Timezone ID, e.g. Europe/Berlin")},

		// Browser
		&cli.BoolFlag{Name: "no-headless", Usage: l10n.T("Run browser in non-headless mode")},
		&cli.StringFlag{Name: "chrome-path", Usage: l10n.T("Path to Chrome executable")},
		&cli.BoolFlag{Name: "oneshot", Usage: l10n.T("Launch a browser per render")},

		// Debug and logging
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Enable debug output")},
		&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output")},
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: l10n.T("Suppress all log output")},
	}
}

func threadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "posts", Usage: l10n.T("Posts file (YAML or JSON)")},
		&cli.IntFlag{Name: "limit", Value: 20, Usage: l10n.T("Maximum number of posts, counted from the given post")},
		&cli.BoolFlag{Name: "single", Usage: l10n.T("Render the post alone without thread connectors")},
		&cli.BoolFlag{Name: "connector-on-last", Usage: l10n.T("Draw the thread connector below the last post")},
		&cli.BoolFlag{Name: "no-media", Usage: l10n.T("Do not download media previews")},
	}
}

func outputFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: required, Usage: l10n.T("Output PNG file path (required)")},
		&cli.IntFlag{Name: "items-per-image", Usage: l10n.T("Split into images of at most N items")},
		&cli.IntFlag{Name: "max-item-height", Usage: l10n.T("Split into images of at most N CSS pixels")},
		&cli.StringFlag{Name: "summary", Usage: l10n.T("Output execution summary to file (Markdown format)")},
	}
}
