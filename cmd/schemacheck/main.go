package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/blackcoderx/schemacheck/pkg/schematron/compendium"
	edocompendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/edo"
	fnscompendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/fns"
	rarcompendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/rar"
	statcompendium "github.com/blackcoderx/schemacheck/pkg/schematron/compendium/stat"
	"github.com/blackcoderx/schemacheck/pkg/schematron/checker"
	"github.com/blackcoderx/schemacheck/pkg/schematron/config"
	"github.com/blackcoderx/schemacheck/pkg/schematron/xmldoc"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile string
	family  string

	rootCmd = &cobra.Command{
		Use:   "schemacheck",
		Short: "schemacheck validates tax/statistical XML reports against their declared schemas",
		Long: `schemacheck loads a family's compendium of XSD schemas and Schematron-style
assertions, then checks one or more report documents against it, reporting the
same structured verify_result every checker family produces.`,
	}

	checkCmd = &cobra.Command{
		Use:   "check [files...]",
		Short: "Check one or more report documents against the loaded compendium",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(family, args)
		},
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a starter config.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")

	checkCmd.Flags().StringVarP(&family, "family", "f", "", "checker family: fns, stat, edo, rar")
	_ = checkCmd.MarkFlagRequired("family")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("schemacheck %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	})
}

func initConfig() {
	// Optional: a .env file loaded into the process environment. Missing
	// is fine; malformed just gets a warning. config.Load reads only the
	// YAML file, so these variables do not change the loaded Config.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func runInit() error {
	cfg := &config.Config{XSDRoot: "./compendium", XMLRoot: "./reports"}
	out, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(cfgFile, out, 0o644)
}

func runCheck(familyName string, files []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	facade, err := buildFacade(cfg.XSDRoot, checker.Family(familyName))
	if err != nil {
		return err
	}

	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		doc, err := xmldoc.Parse(path, content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		res, err := facade.Check(checker.Family(familyName), doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		out, _ := json.MarshalIndent(res, "", "  ")
		fmt.Printf("%s:\n%s\n", path, out)
	}
	return nil
}

// buildFacade loads only the compendium the requested family needs —
// startup cost scales with what the caller actually checks, not with
// every family this module knows about.
func buildFacade(xsdRoot string, family checker.Family) (*checker.Facade, error) {
	var fnsC *fnscompendium.Compendium
	var statC *statcompendium.Compendium
	var edoC *edocompendium.Compendium
	var rarC *rarcompendium.Compendium
	var err error

	var keys []string
	switch family {
	case checker.FNS:
		fnsC, err = fnscompendium.Load(catalogueFile(xsdRoot), xsdRoot)
		if err == nil {
			keys = fnsC.Keys()
		}
	case checker.STAT:
		statC, err = statcompendium.Load(xsdRoot)
		if err == nil {
			keys = statC.Keys()
		}
	case checker.EDO:
		edoC, err = edocompendium.Load(xsdRoot)
		if err == nil {
			keys = edoC.Keys()
		}
	case checker.RAR:
		rarC, err = rarcompendium.Load(xsdRoot)
		if err == nil {
			keys = rarC.Keys()
		}
	default:
		return nil, fmt.Errorf("unknown family %q", family)
	}
	if err != nil {
		return nil, err
	}
	if err := compendium.WriteManifest(xsdRoot, string(family), keys); err != nil {
		return nil, fmt.Errorf("failed to write compendium manifest: %w", err)
	}
	return checker.NewFacade(fnsC, statC, edoC, rarC), nil
}

func catalogueFile(xsdRoot string) string {
	return xsdRoot + "/catalogue.xml"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
