// airlync-discover broadcasts a discovery probe and prints every
// responding device.
//
// Usage:
//
//	airlync-discover [options]
//
// Options:
//
//	-broadcast  Broadcast address (default: 255.255.255.255)
//	-timeout    How long to listen for responses, in seconds (default: 5)
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/airlync/airlync/pkg/discovery"
)

func main() {
	broadcast := flag.String("broadcast", discovery.DefaultBroadcastAddr, "broadcast address")
	timeoutSec := flag.Uint("timeout", uint(discovery.DefaultTimeout/time.Second), "response window in seconds")
	flag.Parse()

	found, err := discovery.Discover(*broadcast, time.Duration(*timeoutSec)*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "airlync-discover: %v\n", err)
		os.Exit(1)
	}

	if len(found) == 0 {
		fmt.Println("no devices found")
		return
	}
	for _, d := range found {
		fmt.Printf("device_id=%d type=0x%02X serial=%s ssid=%s address=%s:%d\n",
			d.DeviceID, d.ApplianceType, d.Serial, d.SSID, d.Address, d.Port)
	}
}
