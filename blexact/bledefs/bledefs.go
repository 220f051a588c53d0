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

package bledefs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Stops a scan this long after it starts unless it is stopped first.
const BLE_SCAN_PERIOD_DFLT_MS = 10000

type BleAddr struct {
	Bytes [6]byte
}

func ParseBleAddr(s string) (BleAddr, error) {
	ba := BleAddr{}

	toks := strings.Split(strings.ToLower(s), ":")
	if len(toks) != 6 {
		return ba, fmt.Errorf("invalid BLE addr string: %s", s)
	}

	for i, t := range toks {
		if len(t) != 2 {
			return ba, fmt.Errorf("invalid BLE addr string: %s", s)
		}

		u64, err := strconv.ParseUint(t, 16, 8)
		if err != nil {
			return ba, fmt.Errorf("invalid BLE addr string: %s", s)
		}
		ba.Bytes[i] = byte(u64)
	}

	return ba, nil
}

// Produces the colon-separated, upper-case form that Android's
// BluetoothAdapter accepts.
func (ba *BleAddr) String() string {
	var buf bytes.Buffer
	buf.Grow(len(ba.Bytes) * 3)

	for i, b := range ba.Bytes {
		if i != 0 {
			buf.WriteString(":")
		}
		fmt.Fprintf(&buf, "%02X", b)
	}

	return buf.String()
}

func (ba *BleAddr) MarshalJSON() ([]byte, error) {
	return json.Marshal(ba.String())
}

func (ba *BleAddr) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	var err error
	*ba, err = ParseBleAddr(s)
	if err != nil {
		return err
	}

	return nil
}

// Normalizes an address string; returns the input unchanged if it doesn't
// parse.
func NormalizeAddr(s string) string {
	ba, err := ParseBleAddr(s)
	if err != nil {
		return s
	}

	return ba.String()
}

type ConnState int

const (
	CONN_STATE_DISCONNECTED ConnState = iota
	CONN_STATE_CONNECTING
	CONN_STATE_CONNECTED
	CONN_STATE_DISCOVERING_SVC
	CONN_STATE_READY
)

var ConnStateStringMap = map[ConnState]string{
	CONN_STATE_DISCONNECTED:    "disconnected",
	CONN_STATE_CONNECTING:      "connecting",
	CONN_STATE_CONNECTED:       "connected",
	CONN_STATE_DISCOVERING_SVC: "discovering_services",
	CONN_STATE_READY:           "ready",
}

func ConnStateToString(state ConnState) string {
	s := ConnStateStringMap[state]
	if s == "" {
		return "???"
	}

	return s
}

func ConnStateFromString(s string) (ConnState, error) {
	for state, name := range ConnStateStringMap {
		if s == name {
			return state, nil
		}
	}

	return ConnState(0), fmt.Errorf("Invalid ConnState string: %s", s)
}

func (s ConnState) String() string {
	return ConnStateToString(s)
}

func (s ConnState) MarshalJSON() ([]byte, error) {
	return json.Marshal(ConnStateToString(s))
}

func (s *ConnState) UnmarshalJSON(data []byte) error {
	var err error

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	*s, err = ConnStateFromString(str)
	return err
}

// Indicates whether the session holds an open platform connection.
func (s ConnState) IsOpen() bool {
	return s != CONN_STATE_DISCONNECTED
}

type Permission int

const (
	PERM_SCAN Permission = iota
	PERM_CONNECT
)

var PermissionStringMap = map[Permission]string{
	PERM_SCAN:    "scan",
	PERM_CONNECT: "connect",
}

func PermissionToString(p Permission) string {
	s := PermissionStringMap[p]
	if s == "" {
		return "???"
	}

	return s
}

func PermissionFromString(s string) (Permission, error) {
	for p, name := range PermissionStringMap {
		if s == name {
			return p, nil
		}
	}

	return Permission(0), fmt.Errorf("Invalid Permission string: %s", s)
}

func (p Permission) String() string {
	return PermissionToString(p)
}

// Parses a '|'-separated permission list (e.g., "scan|connect").  An empty
// string yields an empty set.
func ParsePermissions(s string) (map[Permission]bool, error) {
	perms := map[Permission]bool{}

	s = strings.TrimSpace(s)
	if s == "" {
		return perms, nil
	}

	for _, tok := range strings.Split(s, "|") {
		p, err := PermissionFromString(strings.TrimSpace(tok))
		if err != nil {
			return nil, err
		}
		perms[p] = true
	}

	return perms, nil
}

func AllPermissions() map[Permission]bool {
	return map[Permission]bool{
		PERM_SCAN:    true,
		PERM_CONNECT: true,
	}
}
