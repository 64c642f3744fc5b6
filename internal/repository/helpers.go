package repository

import (
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

// toVector converts an embedding to the float32 representation pgvector stores.
func toVector(e similarity.Embedding) pgvector.Vector {
	floats := make([]float32, len(e))
	for i, v := range e {
		floats[i] = float32(v)
	}
	return pgvector.NewVector(floats)
}

// fromVector converts a stored pgvector back into an embedding.
func fromVector(v *pgvector.Vector) similarity.Embedding {
	if v == nil || v.Slice() == nil {
		return nil
	}

	floats := v.Slice()
	e := make(similarity.Embedding, len(floats))
	for i, f := range floats {
		e[i] = float64(f)
	}
	return e
}

func toFloat32(e similarity.Embedding) []float32 {
	floats := make([]float32, len(e))
	for i, v := range e {
		floats[i] = float32(v)
	}
	return floats
}
