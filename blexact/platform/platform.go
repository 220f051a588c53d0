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

// Package platform defines the contract between the session controller and
// the BLE stack underneath it.  The shape follows Android's
// BluetoothLeScanner and BluetoothGattCallback: the controller issues
// requests through an Adapter and a Gatt, and the stack answers later by
// sending Event values on the channel the controller handed over.
package platform

import (
	"fmt"

	"github.com/abgp/blemgr/blexact/bledefs"
)

// GATT operation status codes.
const (
	GATT_SUCCESS = 0
	GATT_FAILURE = 257
)

// Profile connection states reported in ConnStateChange.NewState.
const (
	STATE_DISCONNECTED  = 0
	STATE_CONNECTING    = 1
	STATE_CONNECTED     = 2
	STATE_DISCONNECTING = 3
)

// Scan failure codes reported in ScanFailed.Code.
const (
	SCAN_FAILED_ALREADY_STARTED     = 1
	SCAN_FAILED_INTERNAL_ERROR      = 3
	SCAN_FAILED_FEATURE_UNSUPPORTED = 4
)

type Device interface {
	Address() string
	Name() string
}

// A handle to one GATT connection.  Close releases the platform resource;
// no callbacks for the handle are delivered after Close returns.
type Gatt interface {
	Address() string
	DiscoverServices() error
	EnableNotifications() error
	Disconnect() error
	Close() error
}

type Adapter interface {
	Start() error
	Stop() error

	HasPermission(p bledefs.Permission) bool

	// Starts a scan.  Results are sent on ch until StopScan is called.
	StartScan(ch chan<- Event) error
	StopScan() error

	ResolveDevice(addr string) (Device, error)

	// Initiates a connection.  Connection, discovery, and notification
	// callbacks for the returned handle are sent on ch.
	ConnectGatt(dev Device, ch chan<- Event) (Gatt, error)
}

// A platform callback.
type Event interface {
	String() string
}

type ScanResult struct {
	Name    string
	Address string
	Rssi    int
}

func (e ScanResult) String() string {
	return fmt.Sprintf("scan-result name=%q addr=%s rssi=%d",
		e.Name, e.Address, e.Rssi)
}

type ScanFailed struct {
	Code int
}

func (e ScanFailed) String() string {
	return fmt.Sprintf("scan-failed code=%d", e.Code)
}

type ConnStateChange struct {
	Gatt     Gatt
	Status   int
	NewState int
}

func (e ConnStateChange) String() string {
	return fmt.Sprintf("conn-state-change addr=%s status=%d new-state=%d",
		gattAddr(e.Gatt), e.Status, e.NewState)
}

type ServicesDiscovered struct {
	Gatt   Gatt
	Status int
}

func (e ServicesDiscovered) String() string {
	return fmt.Sprintf("services-discovered addr=%s status=%d",
		gattAddr(e.Gatt), e.Status)
}

type CharacteristicChanged struct {
	Gatt    Gatt
	ChrUuid string
	Value   []byte
}

func (e CharacteristicChanged) String() string {
	return fmt.Sprintf("chr-changed addr=%s chr=%s len=%d",
		gattAddr(e.Gatt), e.ChrUuid, len(e.Value))
}

func gattAddr(g Gatt) string {
	if g == nil {
		return "<nil>"
	}
	return g.Address()
}
