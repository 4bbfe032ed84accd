//go:build rp2040 || rp2350

package main

import (
	"strconv"
	"strings"

	"gopper/core"
	"gopper/standalone"
	"gopper/standalone/config"
	"gopper/targets/pio"
	"machine"
	"time"
)

// buildStepperBackends creates one GPIO stepper backend per configured axis,
// initialised against that axis's step/dir pins, keyed by axis letter for
// Manager.Initialize (spec.md §3.1 axis letters).
func buildStepperBackends(cfg *standalone.MachineConfig) map[string]core.StepperBackend {
	backends := make(map[string]core.StepperBackend, len(cfg.Axes))
	for name, a := range cfg.Axes {
		if a.Disabled {
			continue
		}
		stepPin, ok1 := pinNumber(a.StepPin)
		dirPin, ok2 := pinNumber(a.DirPin)
		if !ok1 || !ok2 {
			continue
		}
		backend := pio.NewGPIOStepperBackend()
		if err := backend.Init(stepPin, dirPin, false, a.InvertDir); err != nil {
			continue
		}
		backends[name] = backend
	}
	return backends
}

// pinNumber parses a "gpioN" pin name into its numeric GPIO index.
func pinNumber(name string) (uint8, bool) {
	n, ok := strings.CutPrefix(name, "gpio")
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(n)
	if err != nil || v < 0 || v > 255 {
		return 0, false
	}
	return uint8(v), true
}

// RunStandaloneMode runs the MCU in standalone mode (no Klipper host required)
func RunStandaloneMode() {
	// Get default configuration
	cfg := config.DefaultCartesianConfig()

	// Create manager
	manager, err := standalone.NewManagerWithConfig(cfg)
	if err != nil {
		// Flash LED rapidly to indicate error
		led := machine.LED
		led.Configure(machine.PinConfig{Mode: machine.PinOutput})
		for {
			led.High()
			time.Sleep(100 * time.Millisecond)
			led.Low()
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Get GPIO driver (already initialized in main)
	gpioDriver := core.GetGPIODriver()
	if gpioDriver == nil {
		// Error - GPIO not initialized
		return
	}

	// Initialize manager with one stepper backend per configured axis
	err = manager.Initialize(gpioDriver, buildStepperBackends(cfg))
	if err != nil {
		// Flash LED rapidly to indicate error
		led := machine.LED
		led.Configure(machine.PinConfig{Mode: machine.PinOutput})
		for {
			led.High()
			time.Sleep(100 * time.Millisecond)
			led.Low()
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Start standalone mode
	err = manager.Start()
	if err != nil {
		return
	}

	// Flash LED 3 times to indicate standalone mode started
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for i := 0; i < 3; i++ {
		led.High()
		time.Sleep(200 * time.Millisecond)
		led.Low()
		time.Sleep(200 * time.Millisecond)
	}

	// Main loop for standalone mode
	for {
		// Process USB input
		available := USBAvailable()
		if available > 0 {
			data, err := USBRead()
			if err == nil {
				// Process byte
				err = manager.ProcessByte(data)
				if err != nil {
					// Send error response
					manager.SendResponse("Error: ")
					manager.SendResponse(err.Error())
					manager.SendResponse("\n")
				}
			}
		}

		// Send any pending output
		output := manager.GetOutput()
		if len(output) > 0 {
			USBWriteBytes(output)
		}

		// Update system time
		UpdateSystemTime()

		// Process scheduled timers
		core.ProcessTimers()

		// Yield
		time.Sleep(10 * time.Microsecond)
	}
}
