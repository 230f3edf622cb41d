package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/textfeat/internal/logger"
	"github.com/samcharles93/textfeat/pkg/features"
	"github.com/samcharles93/textfeat/pkg/tensor"
)

type inspectReport struct {
	Feature   string      `json:"feature"`
	Kind      string      `json:"kind"`
	VocabSize int         `json:"vocab_size"`
	Tensor    tensor.Info `json:"tensor"`
	Files     []string    `json:"files,omitempty"`
}

func inspectCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:  "inspect",
		Usage: "Show the encoder and vocabulary files of a feature",
		Flags: append(featureFlags(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the report as JSON",
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
			rep, err := inspectFeature(tf, dataDir, featureName)
			if err != nil {
				return err
			}
			return writeReport(cmd.Root().Writer, rep, asJSON)
		},
	}
}

func inspectFeature(tf *features.Text, dir, name string) (inspectReport, error) {
	rep := inspectReport{
		Feature:   name,
		Kind:      kindRaw,
		VocabSize: tf.VocabSize(),
		Tensor:    tf.TensorInfo(),
	}
	if enc := tf.Encoder(); enc != nil {
		rep.Kind = string(enc.Kind())
	}
	files, err := tf.MetadataFiles(dir, name)
	if err != nil {
		return inspectReport{}, err
	}
	for _, f := range files {
		rep.Files = append(rep.Files, filepath.Join(dir, f))
	}
	return rep, nil
}

func writeReport(w io.Writer, rep inspectReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	fmt.Fprintf(w, "feature:    %s\n", rep.Feature)
	fmt.Fprintf(w, "kind:       %s\n", rep.Kind)
	if rep.VocabSize > 0 {
		fmt.Fprintf(w, "vocab size: %d\n", rep.VocabSize)
	}
	fmt.Fprintf(w, "tensor:     %s\n", rep.Tensor)
	for _, f := range rep.Files {
		fmt.Fprintf(w, "file:       %s\n", f)
	}
	return nil
}
