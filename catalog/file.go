package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	berr "github.com/next-trace/scg-mdb-client/contract/errors"
	"github.com/next-trace/scg-mdb-client/contract/messaging"
	"github.com/next-trace/scg-mdb-client/publisher"
	"gopkg.in/yaml.v3"
)

type fileSpec struct {
	Label        string `yaml:"label"`
	Name         string `yaml:"name"`
	Kind         string `yaml:"kind"`
	LegacyPrefix bool   `yaml:"legacy_prefix"`
}

type fileCatalog struct {
	Primary struct {
		Queue fileSpec `yaml:"queue"`
		Topic fileSpec `yaml:"topic"`
	} `yaml:"primary"`
	Secondary []fileSpec `yaml:"secondary"`
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}

	return c, nil
}

// Parse decodes a YAML catalog. A missing kind defaults to the slot's kind:
// queue for primary.queue and secondaries, topic for primary.topic.
func Parse(data []byte) (Catalog, error) {
	var fc fileCatalog

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fc); err != nil {
		return Catalog{}, fmt.Errorf("decode: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	var errs []error

	spec := func(where string, fs fileSpec, def messaging.Kind) publisher.Spec {
		kind := def
		if fs.Kind != "" {
			k, err := messaging.ParseKind(fs.Kind)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}

			kind = k
		}

		if fs.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name required", where))
		}

		return publisher.Spec{
			Label:   fs.Label,
			Name:    fs.Name,
			Kind:    kind,
			Options: messaging.DestinationOptions{LegacyPrefix: fs.LegacyPrefix},
		}
	}

	c := Catalog{
		Queue: spec("primary.queue", fc.Primary.Queue, messaging.KindQueue),
		Topic: spec("primary.topic", fc.Primary.Topic, messaging.KindTopic),
	}

	for i, fs := range fc.Secondary {
		c.Secondary = append(c.Secondary, spec(fmt.Sprintf("secondary[%d]", i), fs, messaging.KindQueue))
	}

	if len(errs) > 0 {
		return Catalog{}, errors.Join(errs...)
	}

	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}

	return c, nil
}
