// Build with: go build -buildmode=plugin -o rtl433.so ./plugins/rtl433
package main

import (
	"sensoralert/rtl433"
	"sensoralert/shared"
)

var Handler shared.FeedHandler = rtl433.Handler{}
