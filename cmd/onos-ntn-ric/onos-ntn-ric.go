// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-ntn-ric/pkg/config"
	"github.com/onosproject/onos-ntn-ric/pkg/manager"
	"github.com/spf13/cobra"
)

var log = logging.GetLogger("main")

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "onos-ntn-ric",
		Short:        "Near-RT RIC with E2SM-NTN and E2SM-KPM support",
		SilenceUsage: true,
		RunE:         runRICCommand,
	}
	cmd.Flags().String("config", "", "path to the yaml configuration file")
	return cmd
}

func runRICCommand(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadFromYaml(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	log.Infof("Starting onos-ntn-ric %s", cfg.RicID)
	mgr := manager.NewManager(cfg)
	mgr.Run()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	mgr.Close()
	return nil
}
