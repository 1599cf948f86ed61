package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/carebundle/cmd/carebundle/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Print   commands.PrintCmd `cmd:"" help:"Print the build description"`
		Build   commands.BuildCmd `cmd:"" help:"Bundle the application"`
		Serve   commands.ServeCmd `cmd:"" help:"Watch sources and run the dev server"`
		Debug   bool              `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("carebundle"),
		kong.Description("Generates and runs the bundler configuration for the care frontend."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
