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
	"strings"

	"github.com/spf13/cobra"

	"mynewt.apache.org/newt/util"

	"github.com/abgp/blemgr/blemgr/bmutil"
	"github.com/abgp/blemgr/blemgr/config"
)

func connProfileAddCmd(cmd *cobra.Command, args []string) {
	cpm := config.GlobalConnProfileMgr()

	if len(args) == 0 {
		bmUsage(cmd, util.NewNewtError("Need connection profile name"))
	}

	cp := config.NewConnProfile()
	cp.Name = args[0]

	for _, vdef := range args[1:] {
		s := strings.SplitN(vdef, "=", 2)
		if len(s) != 2 {
			bmUsage(cmd, util.FmtNewtError("Expected varname=value: %s",
				vdef))
		}

		switch s[0] {
		case "type":
			var err error
			cp.Type, err = config.ConnTypeFromString(s[1])
			if err != nil {
				bmUsage(cmd, err)
			}
		case "connstring":
			if _, err := config.ParseBleConnString(s[1]); err != nil {
				bmUsage(cmd, err)
			}
			cp.ConnString = s[1]
		default:
			bmUsage(cmd, util.NewNewtError("Unknown variable "+s[0]))
		}
	}

	if err := cpm.AddConnProfile(cp); err != nil {
		bmUsage(cmd, err)
	}

	fmt.Printf("Connection profile %s successfully added\n", cp.Name)
}

func printConnProfile(cp *config.ConnProfile) {
	fmt.Printf("  %s: type=%s\n", cp.Name, config.ConnTypeToString(cp.Type))
	if cp.ConnString == "" {
		return
	}

	for _, kv := range strings.Split(cp.ConnString, ",") {
		fmt.Printf("      %s\n", strings.TrimSpace(kv))
	}
}

func connProfileShowCmd(cmd *cobra.Command, args []string) {
	cpm := config.GlobalConnProfileMgr()

	if len(args) > 0 {
		cp, err := cpm.GetConnProfile(args[0])
		if err != nil {
			bmUsage(nil, err)
		}
		printConnProfile(cp)
		return
	}

	cps := cpm.GetConnProfileList()
	if len(cps) == 0 {
		fmt.Printf("No connection profiles; add one with \"%s conn add\"\n",
			bmutil.ToolInfo.ExeName)
		return
	}

	fmt.Printf("%d connection profile(s):\n", len(cps))
	for _, cp := range cps {
		printConnProfile(cp)
	}
}

// Deletes each named profile; a missing one aborts before any deletion.
func connProfileDelCmd(cmd *cobra.Command, args []string) {
	cpm := config.GlobalConnProfileMgr()

	if len(args) == 0 {
		bmUsage(cmd, util.NewNewtError("Need connection profile name"))
	}

	if err := cpm.DeleteConnProfiles(args...); err != nil {
		bmUsage(nil, err)
	}

	fmt.Printf("Deleted connection profile(s): %s\n",
		strings.Join(args, ", "))
}

func connProfileCmd() *cobra.Command {
	cpCmd := &cobra.Command{
		Use:   "conn",
		Short: "Manage " + bmutil.ToolInfo.ShortName + " connection profiles",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	addHelpText := "Add a connection profile.  Variables:\n" +
		"  type        ble or sim\n" +
		"  connstring  comma-separated key=value pairs: ctlr_name, hci,\n" +
		"              scan_period, conn_timeout, scan_dups, grant,\n" +
		"              sim_devices"

	addCmd := &cobra.Command{
		Use:     "add <conn_profile> <varname=value ...>",
		Short:   "Add a " + bmutil.ToolInfo.ShortName + " connection profile",
		Long:    addHelpText,
		Example: "  " + bmutil.ToolInfo.ExeName + " conn add sim0 type=sim connstring=\"sim_devices=AA:BB:CC:DD:EE:01/left\"",
		Run:     connProfileAddCmd,
	}
	cpCmd.AddCommand(addCmd)

	deleCmd := &cobra.Command{
		Use:   "delete <conn_profile> [conn_profile ...]",
		Short: "Delete " + bmutil.ToolInfo.ShortName + " connection profiles",
		Run:   connProfileDelCmd,
	}
	cpCmd.AddCommand(deleCmd)

	showCmd := &cobra.Command{
		Use:   "show [conn_profile]",
		Short: "Show " + bmutil.ToolInfo.ShortName + " connection profiles",
		Run:   connProfileShowCmd,
	}
	cpCmd.AddCommand(showCmd)

	return cpCmd
}
