package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

// Row ids are 32 alphanumeric characters; archive object names use shorter ones.
const (
	RowIDSize    = 32
	ObjectIDSize = 16
	idAlphabet   = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

func NanoID() string {
	return NanoIDSize(RowIDSize)
}

func NanoIDSize(size int) string {
	if size <= 0 {
		size = RowIDSize
	}

	return gonanoid.MustGenerate(idAlphabet, size)
}
