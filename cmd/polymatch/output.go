package main

import (
	"encoding/json"
	"io"

	"sigs.k8s.io/yaml"

	"github.com/scoizzle/poly/config"
)

func write(cfg *config.Config, out io.Writer, v any) error {
	var (
		b   []byte
		err error
	)

	switch cfg.Output {
	case config.OutputYAML:
		b, err = yaml.Marshal(v)
	default:
		b, err = json.MarshalIndent(v, "", "  ")
		b = append(b, '\n')
	}

	if err != nil {
		return err
	}

	_, err = out.Write(b)
	return err
}
