package main

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/samcharles93/textfeat/pkg/features"
	"github.com/samcharles93/textfeat/pkg/text"
)

const kindRaw = "raw"

// detectKind picks the encoder kind from the vocabulary files present for a
// feature. No files means raw mode.
func detectKind(dir, name string) (string, error) {
	probe, err := features.NewText(nil, nil)
	if err != nil {
		return "", err
	}
	files, err := probe.MetadataFiles(dir, name)
	if err != nil {
		return "", err
	}
	var kinds []text.Kind
	for _, f := range files {
		k, ok := text.KindForFile(f)
		if ok && !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	switch len(kinds) {
	case 0:
		if len(files) > 0 {
			return "", fmt.Errorf("feature %q: no encoder recognizes %s", name, strings.Join(files, ", "))
		}
		return kindRaw, nil
	case 1:
		return string(kinds[0]), nil
	default:
		slices.Sort(kinds)
		return "", fmt.Errorf("feature %q: ambiguous vocabulary files for kinds %v; pass --encoder", name, kinds)
	}
}

// openFeature builds the connector for name and restores its vocabulary.
func openFeature(log *slog.Logger, dir, name, kind string) (*features.Text, error) {
	if name == "" {
		return nil, errors.New("feature name is required")
	}
	if kind == "" || kind == kindAuto {
		var err error
		if kind, err = detectKind(dir, name); err != nil {
			return nil, err
		}
		log.Debug("detected encoder kind", "feature", name, "kind", kind)
	}

	var cfg *text.EncoderConfig
	if kind != kindRaw {
		if _, err := text.Lookup(text.Kind(kind)); err != nil {
			return nil, err
		}
		cfg = &text.EncoderConfig{Kind: text.Kind(kind)}
	}
	tf, err := features.NewText(nil, cfg, features.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := tf.LoadMetadata(dir, name); err != nil {
		return nil, err
	}
	return tf, nil
}

// parseFeatureSpec splits "name" or "name=kind".
func parseFeatureSpec(s string) (name, kind string, err error) {
	name, kind, _ = strings.Cut(strings.TrimSpace(s), "=")
	name = strings.TrimSpace(name)
	kind = strings.TrimSpace(kind)
	if name == "" {
		return "", "", fmt.Errorf("invalid feature %q: empty name", s)
	}
	if kind == "" {
		kind = kindAuto
	}
	return name, kind, nil
}

// parseIDs reads ids separated by spaces or commas.
func parseIDs(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatIDs(ids []int64) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}
