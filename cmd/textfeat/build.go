package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/textfeat/internal/config"
	"github.com/samcharles93/textfeat/internal/corpus"
	"github.com/samcharles93/textfeat/internal/logger"
	"github.com/samcharles93/textfeat/pkg/features"
	"github.com/samcharles93/textfeat/pkg/text"
)

func buildCmd() *cli.Command {
	var (
		corpusPaths    []string
		vocabSize      int64
		reservedTokens []string
		minPairCount   int64
		maxCorpusChars int64
		force          bool
	)

	return &cli.Command{
		Name:      "build",
		Usage:     "Learn a vocabulary from a corpus and write it to the data dir",
		ArgsUsage: "[corpus files...]",
		Flags: append(featureFlags(),
			&cli.StringSliceFlag{
				Name:        "corpus",
				Aliases:     []string{"c"},
				Usage:       "corpus file, one example per line (- for stdin)",
				Destination: &corpusPaths,
			},
			&cli.Int64Flag{
				Name:        "vocab-size",
				Usage:       "target vocabulary size",
				Value:       8192,
				Destination: &vocabSize,
			},
			&cli.StringSliceFlag{
				Name:        "reserved-token",
				Usage:       "token kept whole and given a fixed id (repeatable)",
				Destination: &reservedTokens,
			},
			&cli.Int64Flag{
				Name:        "min-pair-count",
				Usage:       "stop merging when the best pair occurs fewer times",
				Value:       2,
				Destination: &minPairCount,
			},
			&cli.Int64Flag{
				Name:        "max-corpus-chars",
				Usage:       "stop reading the corpus after this many characters (0 = all)",
				Destination: &maxCorpusChars,
			},
			&cli.BoolFlag{
				Name:        "force",
				Usage:       "overwrite existing vocabulary files",
				Destination: &force,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyFeatureConfig(cmd, appConfig)
			applyBuildConfig(cmd, appConfig, &vocabSize, &reservedTokens, &minPairCount, &maxCorpusChars)

			kind := encoderKind
			if kind == kindAuto {
				kind = string(text.KindSubword)
			}
			if kind == kindRaw {
				return errors.New("raw features have no vocabulary to build")
			}

			probe, err := features.NewText(nil, nil)
			if err != nil {
				return err
			}
			existing, err := probe.MetadataFiles(dataDir, featureName)
			if err != nil {
				return err
			}
			if len(existing) > 0 && !force {
				return fmt.Errorf("feature %q already has vocabulary files in %s; pass --force to overwrite", featureName, dataDir)
			}

			tf, err := buildFeature(ctx, text.Kind(kind), int(vocabSize), reservedTokens, int(minPairCount), int(maxCorpusChars),
				append(corpusPaths, cmd.Args().Slice()...))
			if err != nil {
				return err
			}
			if err := tf.SaveMetadata(dataDir, featureName); err != nil {
				return err
			}
			if err := removeStale(dataDir, text.Kind(kind), existing); err != nil {
				return err
			}
			log.Info("vocabulary built",
				"feature", featureName,
				"kind", kind,
				"vocab_size", tf.VocabSize(),
				"prefix", features.MetadataPrefix(dataDir, featureName),
			)
			return nil
		},
	}
}

func buildFeature(ctx context.Context, kind text.Kind, vocabSize int, reserved []string, minPairs, maxChars int, paths []string) (*features.Text, error) {
	log := logger.FromContext(ctx)
	slogger := logger.AsSlog(log)

	f, err := text.Lookup(kind)
	if err != nil {
		return nil, err
	}

	// The byte vocabulary is fixed apart from its reserved tokens.
	if kind == text.KindByte {
		enc, err := text.NewByteEncoder(reserved...)
		if err != nil {
			return nil, err
		}
		return features.NewText(enc, nil, features.WithLogger(slogger))
	}
	if !f.CanBuild() {
		return nil, fmt.Errorf("encoder kind %s cannot be built from a corpus", kind)
	}
	if len(paths) == 0 {
		return nil, errors.New("no corpus given; pass --corpus or file arguments")
	}

	tf, err := features.NewText(nil, &text.EncoderConfig{Kind: kind, VocabSize: vocabSize}, features.WithLogger(slogger))
	if err != nil {
		return nil, err
	}
	src := corpus.Files(paths...)
	err = tf.MaybeBuildFromCorpus(src.Lines(),
		text.WithReservedTokens(reserved...),
		text.WithMinPairCount(minPairs),
		text.WithMaxCorpusChars(maxChars),
		text.WithBuildLogger(slogger),
	)
	if srcErr := src.Err(); srcErr != nil {
		return nil, srcErr
	}
	if err != nil {
		return nil, err
	}
	log.Debug("corpus read", "records", src.Records())
	return tf, nil
}

// removeStale deletes the feature's previous vocabulary files that the new
// kind did not overwrite.
func removeStale(dir string, kind text.Kind, files []string) error {
	for _, f := range files {
		if k, ok := text.KindForFile(f); ok && k == kind {
			continue
		}
		if err := os.Remove(filepath.Join(dir, f)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale vocabulary file: %w", err)
		}
	}
	return nil
}

func applyBuildConfig(c *cli.Command, cfg config.Config, vocabSize *int64, reserved *[]string, minPairs, maxChars *int64) {
	if cfg.VocabSize != nil && !c.IsSet("vocab-size") {
		*vocabSize = int64(*cfg.VocabSize)
	}
	if len(cfg.ReservedTokens) > 0 && !c.IsSet("reserved-token") {
		*reserved = cfg.ReservedTokens
	}
	if cfg.MinPairCount != nil && !c.IsSet("min-pair-count") {
		*minPairs = int64(*cfg.MinPairCount)
	}
	if cfg.MaxCorpusChars != nil && !c.IsSet("max-corpus-chars") {
		*maxChars = int64(*cfg.MaxCorpusChars)
	}
}
