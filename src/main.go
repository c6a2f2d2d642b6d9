package main

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/plusk0/rowedit/internal/config"
	"github.com/plusk0/rowedit/internal/store"
)

// Flags for the command line, for `go-flags` to parse command line args into.
type options struct {
	Config   string `short:"c" long:"config" description:"column schema (.json, .yaml or a Go DataEntry struct)" value-name:"<FILE>" default:"./config.json"`
	DB       string `long:"db" description:"SQLite database file" value-name:"<FILE>" default:"./data.db"`
	View     string `long:"view" description:"saved view to show on start" value-name:"<NAME>"`
	Editable bool   `long:"editable" description:"make the table editable even if the schema does not opt in"`

	Export string `short:"o" long:"export" description:"write the rows to FILE and exit instead of opening a window" value-name:"<FILE>"`
	Format string `long:"format" description:"export format; guessed from the file extension if omitted" choice:"json" choice:"arrow" choice:"parquet"`

	LogLevel string `long:"log-level" description:"minimum level to log" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	_, err := parser.Parse()
	if flags.WroteHelp(err) {
		os.Exit(0)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "fatal error (e.g. flag parsing):\n > %s\n", err.Error())
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(opts.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("bad log level")
	}
	zerolog.SetGlobalLevel(level)

	schema, err := config.Load(opts.Config)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Config).Msg("failed to load config")
	}
	log.Debug().Interface("fields", schema.Fields).Msg("loaded schema")

	st, err := store.Open(opts.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer st.Close()

	if opts.Export != "" {
		if err := runExport(st, schema, opts.Export, opts.Format, opts.View); err != nil {
			log.Error().Err(err).Msg("export failed")
			st.Close()
			os.Exit(1)
		}
		return
	}

	a := app.New()
	win := a.NewWindow("Simple Data Management App")
	win.SetContent(createUI(win, st, schema, opts))
	win.Resize(fyne.NewSize(900, 640))
	win.ShowAndRun()
}
