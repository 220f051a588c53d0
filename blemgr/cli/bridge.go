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
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mynewt.apache.org/newt/util"

	"github.com/abgp/blemgr/blexact/bmxutil"
	"github.com/abgp/blemgr/blexact/bridge"
	"github.com/abgp/blemgr/blexact/sink"
)

func bridgeRunCmd(cmd *cobra.Command, args []string) {
	fmtStr, err := cmd.Flags().GetString("format")
	if err != nil {
		bmUsage(cmd, util.ChildNewtError(err))
	}

	rf, err := sink.RecordFormatFromString(fmtStr)
	if err != nil {
		bmUsage(cmd, util.ChildNewtError(err))
	}

	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		bmUsage(cmd, util.ChildNewtError(err))
	}

	rs := sink.NewRecordSink(os.Stdout, rf)
	if debug {
		h := sink.NewDebugHook(rs, BlemgrLogLevel, 256)
		defer h.Close()

		log.AddHook(h)
		bmxutil.CallbackLog.AddHook(h)
	}

	c, err := GetController(rs)
	if err != nil {
		bmUsage(nil, err)
	}

	b := bridge.NewBridge(c, rs)
	if err := b.Run(context.Background(), os.Stdin); err != nil {
		bmUsage(nil, util.ChildNewtError(err))
	}
}

func bridgeCmd() *cobra.Command {
	bridgeHelpText := "Read commands from stdin, one per line, and write " +
		"events to stdout.\nCommands: startScan, stopScan, connect <address>, " +
		"disconnect, status, quit."

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Drive the controller over stdin and stdout",
		Long:  bridgeHelpText,
		Run:   bridgeRunCmd,
	}

	cmd.Flags().StringP("format", "f", "json",
		"event record encoding (json or cbor)")
	cmd.Flags().Bool("debug", false,
		"also write log entries at the current log level as "+
			"debug_message records")

	return cmd
}
