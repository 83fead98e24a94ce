package loader

import (
	"bytes"

	"github.com/pelletier/go-toml/v2"
)

type tomlLoaderBackend struct{}

var _ loaderBackend = &tomlLoaderBackend{}

func newTOMLLoaderBackend() loaderBackend {
	return &tomlLoaderBackend{}
}

func (b *tomlLoaderBackend) Decode(data []byte) (*Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}
