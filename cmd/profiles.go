package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/salary-evaluator/internal/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List and validate the configured policy profiles",
	Run: func(cmd *cobra.Command, _ []string) {
		profiles(cmd)
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)

	profilesCmd.Flags().BoolP("verbose", "v", false, "print step bands and keyword rules as yaml")
}

func profiles(cmd *cobra.Command) {
	logger, _ := newRunLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	registry, err := profile.NewRegistry(config.Profiles)
	if err != nil {
		logger.Fatal("invalid profile", zap.Error(err))
	}

	verbose := mustBool(cmd, "verbose")
	for _, name := range registry.Names() {
		p, _ := registry.Get(name)
		fmt.Printf("%s\t%s\n", p.Name, p.Description)
		if !verbose {
			continue
		}
		for _, band := range p.Bands {
			fmt.Printf("  %-16s score >= %-2d steps %d-%d\n", band.Label, band.ScoreFloor, band.LowStep, band.HighStep)
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any{"keywords": p.Keywords}); err != nil {
			logger.Fatal("printing keyword rules", zap.Error(err))
		}
		enc.Close()
	}
}
