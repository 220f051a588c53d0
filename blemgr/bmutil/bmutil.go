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

package bmutil

import (
	"time"
)

type ToolInfoType struct {
	ExeName       string
	ShortName     string
	LongName      string
	VersionString string
	CfgFilename   string
}

var ConnProfile string
var ConnType string
var ConnString string
var ConnExtra string
var ToolInfo ToolInfoType
var HciIdx int

// Scan window in seconds; zero means use the connection's setting.
var ScanPeriod float64

func ScanPeriodDuration() time.Duration {
	return time.Duration(ScanPeriod * float64(time.Second))
}

type causer interface {
	Cause() error
}

// ErrorCausedBy reports whether cause appears anywhere in err's chain of
// pkg/errors wrappers, including intermediate layers.
func ErrorCausedBy(err error, cause error) bool {
	for err != nil {
		if err == cause {
			return true
		}

		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}

	return false
}
