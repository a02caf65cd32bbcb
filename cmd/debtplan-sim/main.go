// debtplan-sim runs the payoff simulation on a JSON snapshot read from
// a file or stdin and writes the result JSON to stdout.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"debtplan/internal/simulation"
)

func main() {
	pretty := flag.Bool("pretty", false, "indent the output JSON")
	snowballOrder := flag.String("snowball-order", "balance", "snowball strategy target: balance or interest")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [input.json]\n\nReads the plan snapshot from input.json, or stdin when omitted.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *snowballOrder != "balance" && *snowballOrder != "interest" {
		fail(fmt.Errorf("invalid snowball order %q: must be 'balance' or 'interest'", *snowballOrder))
	}

	in := os.Stdin
	if name := flag.Arg(0); name != "" && name != "-" {
		f, err := os.Open(name)
		if err != nil {
			fail(err)
		}
		defer f.Close()
		in = f
	}

	data, err := io.ReadAll(in)
	if err != nil {
		fail(fmt.Errorf("read input: %w", err))
	}

	var input simulation.Input
	if err := json.Unmarshal(data, &input); err != nil {
		fail(fmt.Errorf("parse input: %w", err))
	}

	result, err := simulation.Run(input, simulation.Options{
		SnowballByInterest: *snowballOrder == "interest",
	})
	if err != nil {
		fail(err)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		fail(fmt.Errorf("write result: %w", err))
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "debtplan-sim:", err)
	os.Exit(1)
}
