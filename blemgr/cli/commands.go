/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package cli

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mynewt.apache.org/newt/util"

	"github.com/abgp/blemgr/blemgr/bmutil"
	"github.com/abgp/blemgr/blexact/bmxutil"
)

var BlemgrLogLevel log.Level

var onExit func()

func BmSetOnExit(fn func()) {
	onExit = fn
}

func bmExit(code int) {
	if onExit != nil {
		onExit()
	}
	os.Exit(code)
}

func bmUsage(cmd *cobra.Command, err error) {
	if err != nil {
		if nerr, ok := err.(*util.NewtError); ok {
			log.Debugf("%s", nerr.StackTrace)
			fmt.Fprintf(os.Stderr, "Error: %s\n", nerr.Text)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		}
	}

	if cmd != nil {
		fmt.Printf("\n")
		fmt.Printf("%s - ", cmd.Name())
		cmd.Help()
	}

	bmExit(1)
}

func Commands() *cobra.Command {
	logLevelStr := ""
	bmCmd := &cobra.Command{
		Use:   bmutil.ToolInfo.ExeName,
		Short: bmutil.ToolInfo.ShortName + " scans for and connects to BLE peripherals",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			BlemgrLogLevel, err = log.ParseLevel(logLevelStr)
			if err != nil {
				bmUsage(nil, util.ChildNewtError(err))
			}

			err = util.Init(BlemgrLogLevel, "", util.VERBOSITY_DEFAULT)
			if err != nil {
				bmUsage(nil, err)
			}
			bmxutil.SetLogLevel(BlemgrLogLevel)

			// Set cbgo log level if we're using macOS.
			OSSpecificInit()
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	bmCmd.PersistentFlags().StringVarP(&bmutil.ConnProfile, "conn", "c", "",
		"connection profile to use")

	bmCmd.PersistentFlags().StringVarP(&logLevelStr, "loglevel", "l", "info",
		"log level to use")

	bmCmd.PersistentFlags().StringVar(&bmutil.ConnType, "conntype", "",
		"Connection type to use instead of using the profile's type")

	bmCmd.PersistentFlags().StringVar(&bmutil.ConnString, "connstring", "",
		"Connection key-value pairs to use instead of using the profile's "+
			"connstring")

	bmCmd.PersistentFlags().StringVar(&bmutil.ConnExtra, "connextra", "",
		"Additional key-value pair to append to the connstring")

	bmCmd.PersistentFlags().IntVarP(&bmutil.HciIdx, "hci", "i",
		0, "HCI index for the controller on Linux machine")

	bmCmd.PersistentFlags().Float64Var(&bmutil.ScanPeriod, "scan-period", 0,
		"scan window in seconds; overrides the connstring's scan_period")

	versCmd := &cobra.Command{
		Use:     "version",
		Short:   "Display the " + bmutil.ToolInfo.ShortName + " version number",
		Example: "  " + bmutil.ToolInfo.ExeName + " version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n",
				bmutil.ToolInfo.LongName,
				bmutil.ToolInfo.VersionString)
		},
	}
	bmCmd.AddCommand(versCmd)

	bmCmd.AddCommand(scanCmd())
	bmCmd.AddCommand(listenCmd())
	bmCmd.AddCommand(bridgeCmd())
	bmCmd.AddCommand(interactiveCmd())
	bmCmd.AddCommand(connProfileCmd())

	return bmCmd
}
