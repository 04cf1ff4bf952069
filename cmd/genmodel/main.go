// genmodel writes a placeholder model artifact for testing the serving
// stack. Replace the artifact with a real trained model for production use.
package main

import (
	"flag"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dialwise/calltime-predictor/internal/artifact"
	"github.com/dialwise/calltime-predictor/internal/classifier"
)

func main() {
	var (
		out     = flag.String("out", "model.tar.gz", "output path (.tar.gz archive or .json document)")
		seed    = flag.Int64("seed", 42, "random seed for synthetic samples")
		samples = flag.Int("samples", 1000, "synthetic sample count")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	doc := classifier.BuildPlaceholder(*seed, *samples)

	var err error
	if strings.HasSuffix(*out, ".tar.gz") || strings.HasSuffix(*out, ".tgz") {
		err = artifact.WriteArchive(doc, *out)
	} else {
		err = artifact.Save(doc, *out)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write model artifact")
	}

	log.Info().
		Str("path", *out).
		Int("samples", doc.SampleCount).
		Ints("labels", doc.Labels).
		Msg("Placeholder model written")
}
