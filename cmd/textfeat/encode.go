package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/textfeat/internal/corpus"
	"github.com/samcharles93/textfeat/internal/logger"
	"github.com/samcharles93/textfeat/pkg/features"
)

// encodedLine is one --json output record. Encoded features always write
// "ids", raw ones always write "bytes".
type encodedLine struct {
	Text  string  `json:"text"`
	IDs   []int64 `json:"ids,omitempty"`
	Bytes []byte  `json:"bytes,omitempty"`
}

func (l encodedLine) MarshalJSON() ([]byte, error) {
	if l.IDs != nil {
		return json.Marshal(struct {
			Text string  `json:"text"`
			IDs  []int64 `json:"ids"`
		}{l.Text, l.IDs})
	}
	b := l.Bytes
	if b == nil {
		b = []byte{}
	}
	return json.Marshal(struct {
		Text  string `json:"text"`
		Bytes []byte `json:"bytes"`
	}{l.Text, b})
}

func encodeCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "encode",
		Usage:     "Encode text with a feature's vocabulary",
		ArgsUsage: "[text...] (reads stdin lines when empty)",
		Flags: append(featureFlags(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "write one JSON object per input",
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
			inputs, err := encodeInputs(cmd)
			if err != nil {
				return err
			}
			return writeEncoded(cmd.Root().Writer, tf, inputs, asJSON)
		},
	}
}

func encodeInputs(cmd *cli.Command) ([]string, error) {
	if cmd.Args().Present() {
		return cmd.Args().Slice(), nil
	}
	var r io.Reader = os.Stdin
	if cmd.Root().Reader != nil {
		r = cmd.Root().Reader
	}
	src := corpus.FromReader("stdin", r)
	lines := slices.Collect(src.Lines())
	if err := src.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func writeEncoded(w io.Writer, tf *features.Text, inputs []string, asJSON bool) error {
	enc := json.NewEncoder(w)
	for _, s := range inputs {
		ex, err := tf.EncodeExample(s)
		if err != nil {
			return err
		}
		switch {
		case asJSON:
			if err := enc.Encode(encodedLine{Text: s, IDs: ex.IDs, Bytes: ex.Bytes}); err != nil {
				return err
			}
		case ex.IDs != nil:
			if _, err := fmt.Fprintln(w, formatIDs(ex.IDs)); err != nil {
				return err
			}
		default:
			if _, err := fmt.Fprintln(w, string(ex.Bytes)); err != nil {
				return err
			}
		}
	}
	return nil
}
