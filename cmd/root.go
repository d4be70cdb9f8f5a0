/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/dgflux/InputParameters"
)

var cfgFile string

// Settings are read from the environment and override the case file
type Settings struct {
	Partitions int    `env:"DGFLUX_PARTITIONS"`
	ProfileDir string `env:"DGFLUX_PROFILE_DIR" envDefault:"."`
}

// ParseEnv loads Settings from environment variables
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dgflux",
	Short: "Discontinuous Galerkin RHS evaluation for compressible flow",
	Long: `
Evaluates the semi-discrete right hand side of the compressible Euler and
Navier-Stokes equations on tensor product DG meshes, runs convergence studies
against exact solutions and advances cases in time with RK4.

dgflux rhs -i case.yaml`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dgflux.yaml)")
	rootCmd.PersistentFlags().StringP("inputFile", "i", "", "YAML case file")
	rootCmd.PersistentFlags().Bool("profile", false, "write a CPU profile")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print the case parameters")
	for _, name := range []string{"inputFile", "profile", "verbose"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".dgflux")
	}
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// loadCase reads the case file named by --inputFile and applies the
// environment overrides
func loadCase() (c *Case, err error) {
	fileName := viper.GetString("inputFile")
	if len(fileName) == 0 {
		err = fmt.Errorf("must supply a case file (-i, --inputFile), for example:%s", exampleCase)
		return
	}
	var (
		ip       *InputParameters.InputParameters
		settings Settings
	)
	if ip, err = InputParameters.ReadFile(fileName); err != nil {
		return
	}
	if err = ParseEnv(&settings); err != nil {
		return
	}
	if settings.Partitions > 0 {
		ip.Partitions = settings.Partitions
	}
	if viper.GetBool("verbose") {
		ip.Print()
	}
	return NewCase(ip)
}

// startProfile returns the stop function of a CPU profile when --profile is set
func startProfile() (stop func()) {
	if !viper.GetBool("profile") {
		return func() {}
	}
	var settings Settings
	if err := ParseEnv(&settings); err != nil {
		settings.ProfileDir = "."
	}
	return profile.Start(profile.CPUProfile, profile.ProfilePath(settings.ProfileDir)).Stop
}

const exampleCase = `
########################################
Title: "Isentropic Vortex"
PolynomialOrder: 3
Elements: [16, 16]
Lower: [0, -5]
Upper: [10, 5]
Periodic: [1]
SideTags:
  "0": [inflow, outflow]
InitType: vortex
Velocity: [1, 0]
FluxType: Lax
BCs:
  inflow:
    Type: prescribed
  outflow:
    Type: prescribed
FinalTime: 1
########################################
`
