package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gtriggiano/hierauthz/pkg/config"
	"github.com/gtriggiano/hierauthz/pkg/hierarchy"
	"github.com/gtriggiano/hierauthz/pkg/permission"
	"github.com/gtriggiano/hierauthz/pkg/reqcontext"
)

var (
	checkCfgFile string
	checkCtxStr  string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkCfgFile, "config", "config.yaml", "Path to the configuration file")
	checkCmd.Flags().StringVar(&checkCtxStr, "context", "", "Request attribute context, as a flat \"k:v,k:v,...\" string")
}

var checkCmd = &cobra.Command{
	Use:           "check <operation> <path>",
	Short:         "Evaluate a single access decision against a configuration file and exit",
	Args:          cobra.ExactArgs(2),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(_ *cobra.Command, args []string) error {
		operation, path := args[0], args[1]

		absPath, err := filepath.Abs(checkCfgFile)
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
		cfg, err := config.Load(absPath)
		if err != nil {
			return err
		}

		resources := make(map[string]hierarchy.ResourceAttributes, len(cfg.Resources))
		for p, rc := range cfg.Resources {
			resources[p] = hierarchy.ResourceAttributes{
				AccessRule:  rc.AccessRule,
				Description: rc.Description,
			}
		}
		h, err := hierarchy.BuildFromResources(resources)
		if err != nil {
			return err
		}

		op, ok := permission.ParseOperation(operation)
		if !ok {
			return fmt.Errorf("check: unknown operation %q", operation)
		}
		allowed, err := h.IsAllowed(op, path, reqcontext.Parse(checkCtxStr))
		if err != nil {
			return err
		}

		if allowed {
			fmt.Println("allow")
		} else {
			fmt.Println("deny")
		}
		return nil
	},
}
