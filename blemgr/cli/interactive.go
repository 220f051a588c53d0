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

	"github.com/spf13/cobra"
	"gopkg.in/abiosoft/ishell.v2"

	"github.com/abgp/blemgr/blemgr/bmutil"
	"github.com/abgp/blemgr/blexact/ctlr"
	"github.com/abgp/blemgr/blexact/sink"
)

func shellCtlrFunc(c *ctlr.Controller,
	fn func(ctx context.Context, c *ctlr.Controller, args []string) error,
	minArgs int) func(sc *ishell.Context) {

	return func(sc *ishell.Context) {
		if len(sc.Args) < minArgs {
			sc.Println(sc.HelpText())
			return
		}

		// Failures are also reported as error events.
		if err := fn(context.Background(), c, sc.Args); err != nil {
			sc.Println("Error:", err)
		}
	}
}

func startInteractive(cmd *cobra.Command, args []string) {
	events := sink.NewChanSink(64)
	c, err := GetController(events)
	if err != nil {
		bmUsage(nil, err)
	}

	// create new shell.
	// by default, new shell includes 'exit', 'help' and 'clear' commands.
	shell := ishell.New()
	shell.SetPrompt("> ")

	go func() {
		for e := range events.C {
			shell.Println(e)
		}
	}()

	// display welcome info.
	shell.Println()
	shell.Println(" Blemgr interactive mode:")
	shell.Println("	Connection profile: ", bmutil.ConnProfile)
	shell.Println()

	shell.AddCmd(&ishell.Cmd{
		Name: "scan",
		Help: "Start a scan, or stop the running one: scan",
		Func: shellCtlrFunc(c, func(ctx context.Context, c *ctlr.Controller,
			args []string) error {

			return c.StartScan(ctx)
		}, 0),
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "stop",
		Help: "Stop the running scan: stop",
		Func: shellCtlrFunc(c, func(ctx context.Context, c *ctlr.Controller,
			args []string) error {

			return c.StopScan(ctx)
		}, 0),
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "connect",
		Help: "Connect to a peripheral: connect <address>",
		Func: shellCtlrFunc(c, func(ctx context.Context, c *ctlr.Controller,
			args []string) error {

			return c.Connect(ctx, args[0])
		}, 1),
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "disconnect",
		Help: "Close the current connection: disconnect",
		Func: shellCtlrFunc(c, func(ctx context.Context, c *ctlr.Controller,
			args []string) error {

			return c.Disconnect(ctx)
		}, 0),
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "Print scan and connection state: status",
		Func: func(sc *ishell.Context) {
			st := c.Status()
			if st.Scanning {
				sc.Printf("scanning until %s\n",
					st.ScanExpiresAt.Format("15:04:05.000"))
			} else {
				sc.Println("not scanning")
			}
			if st.ConnAddr != "" {
				sc.Printf("connection: %s (%s)\n", st.ConnAddr, st.ConnState)
			} else {
				sc.Println("no connection")
			}
		},
	})

	shell.Run()
	shell.Close()
}

func interactiveCmd() *cobra.Command {
	shellCmd := &cobra.Command{
		Use:   "interactive",
		Short: "Run " + bmutil.ToolInfo.ShortName + " interactive mode",
		Run:   startInteractive,
	}

	return shellCmd
}
