package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shimmeringbee/cec"
	"github.com/shimmeringbee/cec/simulator"
	"github.com/spf13/cobra"
)

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Run one discovery against a simulated bus and print the inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cec.LoadDiscoveryConfigOrDefault(configPath)
			logger := bridgeLogger(log)

			devices := demoDevices()
			cache := cec.NewMessageCache()

			var action *cec.DiscoveryAction
			done := make(chan []cec.DeviceInfo, 1)

			gw := simulator.NewGateway(logger, devices, cache,
				func(f cec.Frame) bool { return action.OnCommand(f) },
				func(s cec.DiscoveryState) { action.OnTimer(s) },
			)

			action = cec.NewDiscoveryAction(cec.DiscoveryActionDeps{
				Logger:  logger,
				Gateway: gw,
				Cache:   cache,
				Config:  cfg,
				Timer:   cec.NewHostActionTimer(gw.FireTimer),
				OnDiscoveryDone: func(list []cec.DeviceInfo) {
					done <- list
				},
			})

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			go gw.Run(ctx)

			if _, err := action.Start(ctx); err != nil {
				return fmt.Errorf("starting discovery: %w", err)
			}

			select {
			case list := <-done:
				printInventory(list)
			case <-ctx.Done():
				return fmt.Errorf("discovery did not finish before the deadline")
			}

			return gw.Wait()
		},
	}
}

func printInventory(list []cec.DeviceInfo) {
	fmt.Printf("%-6s %-10s %-6s %-6s %-10s %s\n", "ADDR", "PHYSICAL", "PORT", "TYPE", "VENDOR", "NAME")
	for _, d := range list {
		fmt.Printf("%-6d 0x%04X     %-6d %-6d 0x%06X   %s\n", d.LogicalAddress, d.PhysicalAddress, d.PortId, d.DeviceType, d.VendorId, d.DisplayName)
	}
}

// demoDevices scripts a small, deterministic bus for the discover and serve
// subcommands to run against without real hardware.
func demoDevices() []simulator.SimulatedDevice {
	return []simulator.SimulatedDevice{
		{
			Address: 4,
			Replies: map[cec.Opcode]cec.Frame{
				cec.OpcodeGivePhysicalAddress: {Opcode: cec.OpcodeReportPhysicalAddress, Source: 4, Params: []byte{0x10, 0x00, 0x04}},
				cec.OpcodeGiveOsdName:         {Opcode: cec.OpcodeSetOsdName, Source: 4, Params: []byte("Blu-ray Player")},
				cec.OpcodeGiveDeviceVendorId:  {Opcode: cec.OpcodeDeviceVendorId, Source: 4, Params: []byte{0x00, 0x80, 0x45}},
			},
			Delay: 20 * time.Millisecond,
		},
		{
			Address: 5,
			Replies: map[cec.Opcode]cec.Frame{
				cec.OpcodeGivePhysicalAddress: {Opcode: cec.OpcodeReportPhysicalAddress, Source: 5, Params: []byte{0x20, 0x00, 0x05}},
				cec.OpcodeGiveOsdName:         {Opcode: cec.OpcodeFeatureAbort, Source: 5, Params: []byte{byte(cec.OpcodeGiveOsdName)}},
				cec.OpcodeGiveDeviceVendorId:  {Opcode: cec.OpcodeDeviceVendorId, Source: 5, Params: []byte{0x00, 0x00, 0x01}},
			},
			Delay: 20 * time.Millisecond,
		},
	}
}
