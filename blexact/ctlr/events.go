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

package ctlr

import (
	"fmt"

	"github.com/abgp/blemgr/blexact/bledefs"
)

// Signal names, as seen by the scripting layer.
const (
	SIGNAL_DEVICE_FOUND       = "device_found"
	SIGNAL_DATA_RECEIVED      = "data_received"
	SIGNAL_CONN_STATUS_CHANGE = "connection_status_changed"
	SIGNAL_SCAN_STOPPED       = "scan_stopped"
	SIGNAL_ERROR              = "error"
	SIGNAL_DEBUG_MESSAGE      = "debug_message"
)

// Reasons carried by ScanStopped.
const (
	SCAN_STOP_TIMEOUT = "timeout"
	SCAN_STOP_STOPPED = "stopped"
	SCAN_STOP_TOGGLED = "toggled"
	SCAN_STOP_FAILED  = "failed"
	SCAN_STOP_CLOSED  = "closed"
)

// Reasons carried by ConnStatusChanged when the new state is Disconnected.
const (
	DISCONNECT_REQUESTED         = "requested"
	DISCONNECT_REPLACED          = "replaced"
	DISCONNECT_LINK_LOST         = "link lost"
	DISCONNECT_CONNECT_FAILED    = "connect failed"
	DISCONNECT_DISCOVERY_FAILED  = "service discovery failed"
	DISCONNECT_PERMISSION_DENIED = "permission denied"
	DISCONNECT_CLOSED            = "closed"
)

// Command names carried by ErrorOccurred.
const (
	OP_START_SCAN = "startScan"
	OP_STOP_SCAN  = "stopScan"
	OP_CONNECT    = "connect"
	OP_DISCONNECT = "disconnect"
	OP_DISCOVER   = "discoverServices"
	OP_NOTIFY     = "enableNotifications"
	OP_SCAN       = "scan"
)

// An outbound controller event.  Field tags name the record keys used when
// an event is serialized for the scripting layer.
type Event interface {
	Signal() string
}

type DeviceFound struct {
	Name    string `codec:"name"`
	Address string `codec:"address"`
}

func (e DeviceFound) Signal() string { return SIGNAL_DEVICE_FOUND }

func (e DeviceFound) String() string {
	return fmt.Sprintf("%s name=%q address=%s", e.Signal(), e.Name, e.Address)
}

type DataReceived struct {
	Address string `codec:"address"`
	ChrUuid string `codec:"chr_uuid"`
	Data    []byte `codec:"data"`
}

func (e DataReceived) Signal() string { return SIGNAL_DATA_RECEIVED }

func (e DataReceived) String() string {
	return fmt.Sprintf("%s address=%s chr=%s data=%x",
		e.Signal(), e.Address, e.ChrUuid, e.Data)
}

type ConnStatusChanged struct {
	Address string            `codec:"address"`
	State   bledefs.ConnState `codec:"state"`
	Reason  string            `codec:"reason"`
}

func (e ConnStatusChanged) Signal() string { return SIGNAL_CONN_STATUS_CHANGE }

func (e ConnStatusChanged) String() string {
	s := fmt.Sprintf("%s address=%s state=%s", e.Signal(), e.Address, e.State)
	if e.Reason != "" {
		s += fmt.Sprintf(" reason=%q", e.Reason)
	}
	return s
}

type ScanStopped struct {
	Reason string `codec:"reason"`
}

func (e ScanStopped) Signal() string { return SIGNAL_SCAN_STOPPED }

func (e ScanStopped) String() string {
	return fmt.Sprintf("%s reason=%s", e.Signal(), e.Reason)
}

type ErrorOccurred struct {
	Op   string `codec:"op"`
	Kind string `codec:"kind"`
	Text string `codec:"text"`
}

func (e ErrorOccurred) Signal() string { return SIGNAL_ERROR }

func (e ErrorOccurred) String() string {
	return fmt.Sprintf("%s op=%s kind=%s text=%q",
		e.Signal(), e.Op, e.Kind, e.Text)
}

// A diagnostic line for hosts that display the controller's log.  The
// controller never emits these itself; see sink.DebugHook.
type DebugMessage struct {
	Level string `codec:"level"`
	Text  string `codec:"text"`
}

func (e DebugMessage) Signal() string { return SIGNAL_DEBUG_MESSAGE }

func (e DebugMessage) String() string {
	return fmt.Sprintf("%s level=%s text=%q", e.Signal(), e.Level, e.Text)
}

// Receives controller events.  Emit is always called from the controller's
// event loop, one event at a time, in the order the events occurred.  An
// implementation must not call back into the controller synchronously.
type Sink interface {
	Emit(e Event)
}

type SinkFunc func(e Event)

func (f SinkFunc) Emit(e Event) {
	f(e)
}
