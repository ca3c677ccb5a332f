package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/wippyai/wapc-runtime/runtime"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to guest wasm file")
		operation   = flag.String("op", "", "Operation to invoke")
		payload     = flag.String("payload", "", "Payload string (reads stdin when piped and empty)")
		payloadFile = flag.String("payload-file", "", "Read the payload from a file")
		hexOut      = flag.Bool("hex", false, "Print the response as hex")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <file.wasm> -op <operation> [-payload string]")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*wasmFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, *operation, *payload, *payloadFile, *hexOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loggingHostCall answers every guest-initiated host call by printing the
// request to stderr and returning an empty response. It makes guests that
// expect a live backend at least observable from the command line.
func loggingHostCall(ctx context.Context, binding, namespace, operation string, payload []byte) ([]byte, error) {
	fmt.Fprintf(os.Stderr, "host call: binding=%q namespace=%q operation=%q payload=%d bytes\n",
		binding, namespace, operation, len(payload))
	return nil, nil
}

func run(wasmFile, operation, payloadStr, payloadFile string, hexOut bool) error {
	ctx := context.Background()

	if operation == "" {
		return fmt.Errorf("no operation given, use -op")
	}

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	payload, err := resolvePayload(payloadStr, payloadFile)
	if err != nil {
		return err
	}

	rt, err := runtime.NewWithConfig(ctx, &runtime.Config{
		HostCallHandler: loggingHostCall,
		ConsoleWriter:   os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(ctx)

	module, err := rt.Load(ctx, data)
	if err != nil {
		return fmt.Errorf("load module: %w", err)
	}

	instance, err := module.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer instance.Close(ctx)

	resp, err := instance.Invoke(ctx, operation, payload)
	if err != nil {
		return fmt.Errorf("invoke %s: %w", operation, err)
	}

	if hexOut {
		fmt.Println(hex.EncodeToString(resp))
		return nil
	}
	os.Stdout.Write(resp)
	if len(resp) > 0 && !strings.HasSuffix(string(resp), "\n") {
		fmt.Println()
	}
	return nil
}

// resolvePayload picks the invocation payload: an explicit file wins, then
// the flag string, then piped stdin.
func resolvePayload(payloadStr, payloadFile string) ([]byte, error) {
	if payloadFile != "" {
		data, err := os.ReadFile(payloadFile)
		if err != nil {
			return nil, fmt.Errorf("read payload file: %w", err)
		}
		return data, nil
	}
	if payloadStr != "" {
		return []byte(payloadStr), nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	return nil, nil
}
