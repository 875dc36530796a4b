// airlync-device connects to a single appliance and prints every status
// update it reports until interrupted.
//
// Usage:
//
//	airlync-device -ip 192.168.1.50 [options]
//
// Options:
//
//	-ip        Device address (required)
//	-port      TCP control port (default: 6444)
//	-protocol  Protocol version, 2 or 3 (default: 3)
//	-type      Appliance type tag: ac, dehumidifier, fan, water-heater (default: ac)
//	-token     Hex-encoded 64-byte handshake token (protocol 3 only)
//	-key       Hex-encoded 32-byte handshake key (protocol 3 only)
//	-refresh   Refresh interval in seconds (default: 30)
//	-heartbeat Heartbeat interval in seconds (default: 10)
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pion/logging"

	"github.com/airlync/airlync/pkg/appliance"
	"github.com/airlync/airlync/pkg/device"
)

func main() {
	opts := parseFlags()

	adapter, err := applianceAdapter(opts.applianceType)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	desc, err := buildDescriptor(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	loggerFactory := logging.NewDefaultLoggerFactory()
	log := loggerFactory.NewLogger("airlync-device")

	s := device.New(desc, adapter, loggerFactory)
	s.RegisterObserver(func(status map[string]any) {
		log.Infof("status: %v", status)
	})

	s.Open()
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
}

type options struct {
	ip            string
	port          uint
	protocol      uint
	applianceType string
	token         string
	key           string
	refresh       uint
	heartbeat     uint
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.ip, "ip", "", "device address (required)")
	flag.UintVar(&o.port, "port", 6444, "TCP control port")
	flag.UintVar(&o.protocol, "protocol", 3, "protocol version, 2 or 3")
	flag.StringVar(&o.applianceType, "type", "ac", "appliance type: ac, dehumidifier, fan, water-heater")
	flag.StringVar(&o.token, "token", "", "hex-encoded 64-byte handshake token (protocol 3)")
	flag.StringVar(&o.key, "key", "", "hex-encoded 32-byte handshake key (protocol 3)")
	flag.UintVar(&o.refresh, "refresh", 30, "refresh interval in seconds")
	flag.UintVar(&o.heartbeat, "heartbeat", 10, "heartbeat interval in seconds")
	flag.Parse()

	if o.ip == "" {
		fmt.Fprintln(os.Stderr, "airlync-device: -ip is required")
		flag.Usage()
		os.Exit(2)
	}
	return o
}

func applianceAdapter(name string) (appliance.Adapter, error) {
	switch name {
	case "ac":
		return appliance.NewAirConditioner(), nil
	case "dehumidifier":
		return appliance.NewDehumidifier(), nil
	case "fan":
		return appliance.NewFan(), nil
	case "water-heater":
		return appliance.NewWaterHeater(), nil
	default:
		return nil, fmt.Errorf("unknown appliance type %q", name)
	}
}

func buildDescriptor(o options) (device.Descriptor, error) {
	desc := device.Descriptor{
		Name:              o.ip,
		IP:                o.ip,
		Port:              uint16(o.port),
		Protocol:          int(o.protocol),
		RefreshInterval:   time.Duration(o.refresh) * time.Second,
		HeartbeatInterval: time.Duration(o.heartbeat) * time.Second,
	}

	if o.protocol == 3 {
		token, err := hex.DecodeString(o.token)
		if err != nil || len(token) != 64 {
			return device.Descriptor{}, fmt.Errorf("-token must be 64 hex-encoded bytes for protocol 3")
		}
		key, err := hex.DecodeString(o.key)
		if err != nil || len(key) != 32 {
			return device.Descriptor{}, fmt.Errorf("-key must be 32 hex-encoded bytes for protocol 3")
		}
		copy(desc.Token[:], token)
		copy(desc.Key[:], key)
	}

	return desc, nil
}
