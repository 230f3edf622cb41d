package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/textfeat/internal/logger"
	"github.com/samcharles93/textfeat/pkg/features"
)

type decodedLine struct {
	IDs  []int  `json:"ids"`
	Text string `json:"text"`
}

func decodeCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode id sequences back to text",
		ArgsUsage: "[ids...] (reads one sequence per stdin line when empty)",
		Flags: append(featureFlags(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "write one JSON object per sequence",
				Destination: &asJSON,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.AsSlog(logger.FromContext(ctx))
			applyFeatureConfig(cmd, appConfig)

			tf, err := openFeature(log, dataDir, featureName, encoderKind)
			if err != nil {
				return err
			}

			var seqs []string
			if cmd.Args().Present() {
				seqs = []string{strings.Join(cmd.Args().Slice(), " ")}
			} else if seqs, err = encodeInputs(cmd); err != nil {
				return err
			}
			return writeDecoded(cmd.Root().Writer, tf, seqs, asJSON)
		},
	}
}

func writeDecoded(w io.Writer, tf *features.Text, seqs []string, asJSON bool) error {
	enc := json.NewEncoder(w)
	for _, seq := range seqs {
		ids, err := parseIDs(seq)
		if err != nil {
			return err
		}
		s, err := tf.IntsToStr(ids)
		if err != nil {
			return err
		}
		if asJSON {
			if err := enc.Encode(decodedLine{IDs: ids, Text: s}); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
	}
	return nil
}
