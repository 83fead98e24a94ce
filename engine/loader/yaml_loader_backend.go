package loader

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlLoaderBackend struct{}

var _ loaderBackend = &yamlLoaderBackend{}

func newYAMLLoaderBackend() loaderBackend {
	return &yamlLoaderBackend{}
}

func (b *yamlLoaderBackend) Decode(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &m, nil
}
