package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopper/host/mcu"
	"gopper/protocol"
	"gopper/standalone"
	"gopper/standalone/config"

	"github.com/google/shlex"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 250000, "Baud rate (ignored for USB CDC)")
	verbose = flag.Bool("verbose", false, "Enable verbose output")

	simMode = flag.Bool("sim", false, "run a host-side motion-core simulation instead of connecting to an MCU")
	setFlag = flag.String("set", "", "space-separated key=value config overrides for -sim, e.g. \"x.max_velocity=200 junction_aggression=0.8\"")
)

func main() {
	flag.Parse()

	if *simMode {
		if err := runSimMode(*setFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Gopper Host - Klipper Protocol Host Implementation")
	fmt.Println("===================================================\n")

	// Create MCU instance
	mcuConn := mcu.NewMCU()

	// Connect to MCU
	fmt.Printf("Connecting to MCU on %s...\n", *device)
	if err := mcuConn.Connect(*device); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer mcuConn.Close()

	fmt.Println("Connected successfully!")

	// Retrieve dictionary
	if err := mcuConn.RetrieveDictionary(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to retrieve dictionary: %v\n", err)
		os.Exit(1)
	}

	// Print dictionary summary
	mcuConn.PrintDictionary()

	// Interactive command loop
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]

		switch cmd {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		case "dict":
			mcuConn.PrintDictionary()

		case "raw":
			// Print raw dictionary data
			raw := mcuConn.GetDictionaryRaw()
			fmt.Printf("Raw dictionary data (%d bytes):\n%s\n", len(raw), string(raw))

		case "get_uptime":
			if err := sendGetUptime(mcuConn); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		case "get_clock":
			if err := sendGetClock(mcuConn); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		case "get_config":
			if err := sendGetConfig(mcuConn); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", cmd)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help           - Show this help message")
	fmt.Println("  dict           - Print dictionary summary")
	fmt.Println("  raw            - Print raw dictionary data")
	fmt.Println("  get_uptime     - Get MCU uptime")
	fmt.Println("  get_clock      - Get MCU clock")
	fmt.Println("  get_config     - Get MCU configuration")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}

func sendGetUptime(mcuConn *mcu.MCU) error {
	fmt.Println("Sending get_uptime command...")

	// get_uptime has no arguments, format: ""
	if err := mcuConn.SendCommand("get_uptime", nil); err != nil {
		return fmt.Errorf("failed to send get_uptime: %w", err)
	}

	fmt.Println("Command sent successfully!")
	fmt.Println("(Note: Response handling not yet implemented - check MCU logs)")

	return nil
}

func sendGetClock(mcuConn *mcu.MCU) error {
	fmt.Println("Sending get_clock command...")

	// get_clock has no arguments, format: ""
	if err := mcuConn.SendCommand("get_clock", nil); err != nil {
		return fmt.Errorf("failed to send get_clock: %w", err)
	}

	fmt.Println("Command sent successfully!")
	fmt.Println("Waiting for response...")

	// Wait a bit for response to arrive
	time.Sleep(100 * time.Millisecond)

	// TODO: Implement proper response handling
	fmt.Println("(Note: Response handling not yet implemented - check MCU logs)")

	return nil
}

func sendGetConfig(mcuConn *mcu.MCU) error {
	fmt.Println("Sending get_config command...")

	// get_config has no arguments, format: ""
	if err := mcuConn.SendCommand("get_config", nil); err != nil {
		return fmt.Errorf("failed to send get_config: %w", err)
	}

	fmt.Println("Command sent successfully!")
	fmt.Println("(Note: Response handling not yet implemented - check MCU logs)")

	return nil
}

// runSimMode drives a standalone.Manager entirely on the host, with no MCU
// or serial link: g-code typed on stdin is tokenised, executed against the
// canonical machine/planner/runtime stack, and any response text is echoed
// back. Useful for exercising the motion core without real hardware.
func runSimMode(overrides string) error {
	cfg := config.DefaultCartesianConfig()

	tokens, err := shlex.Split(overrides)
	if err != nil {
		return fmt.Errorf("parsing -set overrides: %w", err)
	}
	for _, tok := range tokens {
		if err := applyOverride(cfg, tok); err != nil {
			return fmt.Errorf("applying override %q: %w", tok, err)
		}
	}

	mgr, err := standalone.NewManagerWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("building manager: %w", err)
	}
	if err := mgr.Initialize(nil, nil); err != nil {
		return fmt.Errorf("initializing manager: %w", err)
	}
	if err := mgr.Start(); err != nil {
		return fmt.Errorf("starting manager: %w", err)
	}

	fmt.Println("Gopper simulation mode - type g-code lines, 'status' for a report, 'quit' to exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("sim> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			return nil
		case line == "status":
			fmt.Printf("%+v\n", mgr.StatusReport())
			continue
		}

		if err := mgr.ProcessLine(line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		for i := 0; i < 256; i++ {
			mgr.Tick()
		}
		if out := mgr.GetOutput(); len(out) > 0 {
			os.Stdout.Write(out)
		}
	}
	return scanner.Err()
}

// applyOverride parses one "key=value" or "axis.key=value" token and writes
// it into cfg, following the same dotted-path convention as Klipper's
// SET_GCODE_VARIABLE (only the handful of fields the planner/runtime
// actually consume are supported).
func applyOverride(cfg *standalone.MachineConfig, tok string) error {
	eq := strings.IndexByte(tok, '=')
	if eq < 0 {
		return fmt.Errorf("expected key=value, got %q", tok)
	}
	key, raw := tok[:eq], tok[eq+1:]
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("value %q is not a number: %w", raw, err)
	}

	if dot := strings.IndexByte(key, '.'); dot >= 0 {
		axisName, field := key[:dot], key[dot+1:]
		a, ok := cfg.Axes[axisName]
		if !ok {
			return fmt.Errorf("unknown axis %q", axisName)
		}
		switch field {
		case "max_velocity":
			a.MaxVelocity = val
		case "max_accel":
			a.MaxAccel = val
		case "jerk_max":
			a.JerkMax = val
		case "junction_dev":
			a.JunctionDev = val
		default:
			return fmt.Errorf("unknown axis field %q", field)
		}
		cfg.Axes[axisName] = a
		return nil
	}

	switch key {
	case "junction_aggression":
		cfg.JunctionAggression = val
	case "chordal_tolerance":
		cfg.ChordalTolerance = val
	case "min_line_length":
		cfg.MinLineLength = val
	default:
		return fmt.Errorf("unknown config field %q", key)
	}
	return nil
}

// DecodeResponse decodes a response message payload
func DecodeResponse(payload []byte) (cmdID uint16, data []byte, err error) {
	// Decode command ID
	cmdIDUint, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to decode command ID: %w", err)
	}

	return uint16(cmdIDUint), payload, nil
}
