package main

import (
	"fmt"
	"os"

	"github.com/chazu/bimzone/pkg/config"
	"github.com/chazu/bimzone/pkg/pipeline"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cliFlags are the options shared by every command.
type cliFlags struct {
	conf     config.Config
	noEmbed  bool
	output   string
	dxf      string
	stl      string
	scene    string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{conf: config.Default()}

	rootCmd := &cobra.Command{
		Use:           "bimzone",
		Short:         "convert building models into room models",
		Long:          "bimzone reads a building scene and writes rooms with their apertures, doors and shades",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", flags.conf.LoggingLevel,
		"logging level, one of: "+config.AvailableLoggingLevels)
	rootCmd.PersistentFlags().Float64Var(&flags.conf.Tolerances.Linear, "tolerance",
		flags.conf.Tolerances.Linear, "linear tolerance in meters")

	rootCmd.AddCommand(newConvertCmd(flags), newValidateCmd(flags), newInspectCmd(flags))
	return rootCmd
}

func newConvertCmd(flags *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <scene>",
		Short: "convert a scene into a room model",
		Long:  "converts a scene file (.json, .msgpack) or scene script (.zy, .bimz) and writes the model as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, conf, err := flags.setup()
			if err != nil {
				return err
			}
			res, err := app.Convert(args[0], ConvertOptions{
				Config: conf,
				Output: flags.output,
				DXF:    flags.dxf,
				STL:    flags.stl,
				Scene:  flags.scene,
			})
			if err != nil {
				return err
			}
			printSummary(cmd, res)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "model JSON path (default <scene>.model.json)")
	f.StringVar(&flags.dxf, "dxf", "", "also write a DXF file")
	f.StringVar(&flags.stl, "stl", "", "also write an STL file")
	f.StringVar(&flags.scene, "scene", "", "also write the model back as a scene file (.json, .msgpack)")
	f.BoolVar(&flags.noEmbed, "no-embed", false, "emit every projected opening as an orphan")
	f.BoolVar(&flags.conf.CloseGaps, "close-gaps", false, "close wall gaps between neighbouring rooms")
	f.Float64Var(&flags.conf.GapDistance, "gap-distance", flags.conf.GapDistance, "longest gap to close in meters")
	f.Float64Var(&flags.conf.Tolerances.SearchRadius, "radius", flags.conf.Tolerances.SearchRadius,
		"nearest-space search radius in meters")
	f.IntVar(&flags.conf.Workers, "workers", flags.conf.Workers, "worker pool size")
	return cmd
}

func newValidateCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scene>",
		Short: "check a scene for structural problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, conf, err := flags.setup()
			if err != nil {
				return err
			}
			res, err := app.Validate(args[0], conf.Tolerances)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				cmd.Println(w.Error())
			}
			for _, e := range res.Errors {
				cmd.Println(e.Error())
			}
			if !res.OK() {
				return fmt.Errorf("%s: %d errors", args[0], len(res.Errors))
			}
			cmd.Printf("%s: ok (%d warnings)\n", args[0], len(res.Warnings))
			return nil
		},
	}
}

func newInspectCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <script>",
		Short: "evaluate a scene script and list the converted meshes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, conf, err := flags.setup()
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res := app.Evaluate(string(src), conf)
			for _, w := range res.Warnings {
				cmd.Printf("warning: %s\n", w.Message)
			}
			if len(res.Errors) > 0 {
				for _, e := range res.Errors {
					cmd.Printf("error (line %d): %s\n", e.Line, e.Message)
				}
				return fmt.Errorf("%s: evaluation failed", args[0])
			}
			for _, m := range res.Meshes {
				cmd.Printf("%-10s %-20s %6d triangles\n", m.Category, m.PartName, len(m.Indices)/3)
			}
			return nil
		},
	}
}

// setup builds the logger, validates the configuration and creates the app.
func (f *cliFlags) setup() (*App, config.Config, error) {
	conf := f.conf
	conf.LoggingLevel = f.logLevel
	conf.Embed = !f.noEmbed
	if err := conf.Validate(); err != nil {
		return nil, conf, err
	}
	log, err := config.NewLogger(conf.LoggingLevel, os.Stderr)
	if err != nil {
		return nil, conf, err
	}
	log.WithFields(logrus.Fields{"workers": conf.Workers, "embed": conf.Embed}).Debug("Configuration loaded")
	return NewApp(log), conf, nil
}

func printSummary(cmd *cobra.Command, res *ConvertResult) {
	c := res.Model.Counts()
	cmd.Printf("rooms: %d  apertures: %d  doors: %d  orphaned apertures: %d  orphaned doors: %d  shades: %d\n",
		c.Rooms, c.Apertures, c.Doors, c.OrphanedApertures, c.OrphanedDoors, c.Shades+c.OrphanedFaces)
	skipped := res.Report.Skipped()
	for _, o := range skipped {
		cmd.Printf("skipped %s %s: %s\n", o.Kind, o.GUID, o.Failure)
	}
	failures := lo.CountValuesBy(skipped, func(o pipeline.Outcome) string { return o.Failure })
	if len(failures) > 0 {
		cmd.Printf("failures: %v\n", failures)
	}
	for _, path := range res.Written {
		cmd.Printf("wrote %s\n", path)
	}
}
