// Command speedyf fills out form designs made over existing PDFs. A
// project file records which source PDF a form is built on and where its
// fields sit; this program collects the field values, interactively or
// from flags, and writes a stamped copy of the source.
//
//	speedyf --project lease.speedyf --out filled.pdf
//	speedyf --project lease.speedyf --inspect
//	speedyf --project lease.speedyf --out filled.pdf \
//	    --no-input --set has_pets=no --value "inst_4be31a0c=Jane Doe"
package main

import (
	"errors"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("speedyf: ")
	log.SetOutput(os.Stderr)

	cfg, err := LoadFromFlags()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Inspect {
		err = runInspect(os.Stdout, cfg)
	} else {
		err = runFill(cfg, surveyPrompter{})
	}
	if errors.Is(err, errAborted) {
		os.Exit(130)
	}
	if err != nil {
		log.Fatal(err)
	}
}
