package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/reactor-stabilizer/internal/replay"
)

// #region main

func main() {
	flag.Parse()
	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: replay fixture.json [fixture.json ...]")
		os.Exit(2)
	}

	exitCode := 0
	for _, path := range paths {
		f, err := replay.LoadFixture(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			exitCode = 1
			continue
		}

		result := replay.Replay(f)
		status := "ok"
		if !result.Matches(f.Expected) {
			status = "MISMATCH"
			exitCode = 1
		}

		fmt.Printf("%-40s %-10s outcome=%s frames=%d (expected %s/%d)\n",
			path, status, result.Outcome, result.Frames,
			f.Expected.Outcome, f.Expected.Frames)
	}
	os.Exit(exitCode)
}

// #endregion main
