package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

// embeddingFile is the keyed form of an embedding file.
type embeddingFile struct {
	Embedding similarity.Embedding `yaml:"embedding"`
}

// galleryFile is the keyed form of a gallery file. The bare form is the
// identities map on its own.
type galleryFile struct {
	Identities similarity.Gallery `yaml:"identities"`
}

// loadEmbedding reads one embedding. JSON is a subset of YAML, so one decoder
// covers both formats.
func loadEmbedding(path string) (similarity.Embedding, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read embedding: %w", err)
	}

	var bare similarity.Embedding
	if err := yaml.Unmarshal(raw, &bare); err == nil && len(bare) > 0 {
		return bare, nil
	}

	var keyed embeddingFile
	if err := yaml.Unmarshal(raw, &keyed); err != nil {
		return nil, fmt.Errorf("parse embedding %s: %w", path, err)
	}
	if len(keyed.Embedding) == 0 {
		return nil, fmt.Errorf("parse embedding %s: no values found", path)
	}

	return keyed.Embedding, nil
}

// loadGallery reads a label to embeddings mapping. Labels without any
// embedding are rejected here rather than silently skipped by the engine.
func loadGallery(path string) (similarity.Gallery, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gallery: %w", err)
	}

	var keyed galleryFile
	if err := yaml.Unmarshal(raw, &keyed); err == nil && keyed.Identities != nil {
		return checkGallery(path, keyed.Identities)
	}

	var bare similarity.Gallery
	if err := yaml.Unmarshal(raw, &bare); err != nil {
		return nil, fmt.Errorf("parse gallery %s: %w", path, err)
	}
	if bare == nil {
		bare = similarity.Gallery{}
	}

	return checkGallery(path, bare)
}

func checkGallery(path string, g similarity.Gallery) (similarity.Gallery, error) {
	for label, embeddings := range g {
		if label == "" {
			return nil, fmt.Errorf("gallery %s: empty label", path)
		}
		if len(embeddings) == 0 {
			return nil, fmt.Errorf("gallery %s: label %q has no embeddings", path, label)
		}
	}
	return g, nil
}
