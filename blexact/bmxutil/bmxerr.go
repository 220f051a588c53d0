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

package bmxutil

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/abgp/blemgr/blexact/bledefs"
)

// Indicates a command was attempted without the required platform grant.
type PermissionDeniedError struct {
	Perm bledefs.Permission
	Text string
}

func NewPermissionDeniedError(perm bledefs.Permission,
	text string) *PermissionDeniedError {

	return &PermissionDeniedError{
		Perm: perm,
		Text: text,
	}
}

func (e *PermissionDeniedError) Error() string {
	return e.Text
}

func IsPermissionDenied(err error) bool {
	_, ok := errors.Cause(err).(*PermissionDeniedError)
	return ok
}

// Indicates an address that doesn't map to a known device.
type DeviceUnresolvableError struct {
	Addr string
	Text string
}

func NewDeviceUnresolvableError(addr string,
	text string) *DeviceUnresolvableError {

	return &DeviceUnresolvableError{
		Addr: addr,
		Text: text,
	}
}

func FmtDeviceUnresolvableError(addr string, format string,
	args ...interface{}) *DeviceUnresolvableError {

	return NewDeviceUnresolvableError(addr, fmt.Sprintf(format, args...))
}

func (e *DeviceUnresolvableError) Error() string {
	return e.Text
}

func IsDeviceUnresolvable(err error) bool {
	_, ok := errors.Cause(err).(*DeviceUnresolvableError)
	return ok
}

// Represents a platform-reported disconnect that wasn't requested.
type LinkLostError struct {
	Addr   string
	Status int
	Text   string
}

func NewLinkLostError(addr string, status int) *LinkLostError {
	return &LinkLostError{
		Addr:   addr,
		Status: status,
		Text: fmt.Sprintf("link to %s lost; status=%d",
			addr, status),
	}
}

func (e *LinkLostError) Error() string {
	return e.Text
}

func IsLinkLost(err error) bool {
	_, ok := errors.Cause(err).(*LinkLostError)
	return ok
}

type SesnClosedError struct {
	Text string
}

func NewSesnClosedError(text string) *SesnClosedError {
	return &SesnClosedError{
		Text: text,
	}
}

func (e *SesnClosedError) Error() string {
	return e.Text
}

func IsSesnClosed(err error) bool {
	_, ok := errors.Cause(err).(*SesnClosedError)
	return ok
}

type ScanFailedError struct {
	Code int
	Text string
}

func NewScanFailedError(code int) *ScanFailedError {
	return &ScanFailedError{
		Code: code,
		Text: fmt.Sprintf("scan failed; code=%d", code),
	}
}

func (e *ScanFailedError) Error() string {
	return e.Text
}

func IsScanFailed(err error) bool {
	_, ok := errors.Cause(err).(*ScanFailedError)
	return ok
}

// Error kinds as reported to event sinks.
const (
	ERR_KIND_PERMISSION   = "permission_denied"
	ERR_KIND_UNRESOLVABLE = "device_unresolvable"
	ERR_KIND_LINK_LOST    = "link_lost"
	ERR_KIND_SCAN_FAILED  = "scan_failed"
	ERR_KIND_CLOSED       = "closed"
	ERR_KIND_PLATFORM     = "platform"
)

// Maps an error to the kind string reported to sinks.
func ErrorKind(err error) string {
	switch errors.Cause(err).(type) {
	case *PermissionDeniedError:
		return ERR_KIND_PERMISSION
	case *DeviceUnresolvableError:
		return ERR_KIND_UNRESOLVABLE
	case *LinkLostError:
		return ERR_KIND_LINK_LOST
	case *ScanFailedError:
		return ERR_KIND_SCAN_FAILED
	case *SesnClosedError:
		return ERR_KIND_CLOSED
	default:
		return ERR_KIND_PLATFORM
	}
}
