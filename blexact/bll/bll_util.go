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

package bll

import (
	"encoding/binary"
	"fmt"

	"github.com/JuulLabs-OSS/ble"
)

// Formats a UUID the way the scripting layer sees it: four hex digits for
// 16-bit UUIDs, the dashed form for 128-bit ones.
func UuidString(bllUuid ble.UUID) (string, error) {
	switch len(bllUuid) {
	case 2:
		return fmt.Sprintf("%04x", binary.LittleEndian.Uint16(bllUuid)), nil

	case 16:
		var b [16]byte
		for i, v := range bllUuid {
			b[15-i] = v
		}
		return fmt.Sprintf("%x-%x-%x-%x-%x",
			b[0:4], b[4:6], b[6:8], b[8:10], b[10:16]), nil

	default:
		return "", fmt.Errorf("Invalid UUID: %#v", bllUuid)
	}
}
