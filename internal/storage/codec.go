package storage

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"genelab/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Payloads are canonical CBOR so equal records always encode to equal bytes.
var encMode cbor.EncMode

func init() {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("storage: cbor enc mode: %v", err))
	}
	encMode = mode
}

// CurrentVersion is the version stamp for records written by this package.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeDNA(r model.DNARecord) ([]byte, error) {
	return encMode.Marshal(r)
}

func DecodeDNA(data []byte) (model.DNARecord, error) {
	return decodeVersioned(data, func(r model.DNARecord) model.VersionedRecord { return r.VersionedRecord })
}

func EncodePopulation(p model.Population) ([]byte, error) {
	return encMode.Marshal(p)
}

func DecodePopulation(data []byte) (model.Population, error) {
	return decodeVersioned(data, func(p model.Population) model.VersionedRecord { return p.VersionedRecord })
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return encMode.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	return decodeVersioned(data, func(r model.RunRecord) model.VersionedRecord { return r.VersionedRecord })
}

func EncodeLineage(records []model.LineageRecord) ([]byte, error) {
	return encMode.Marshal(records)
}

func DecodeLineage(data []byte) ([]model.LineageRecord, error) {
	var records []model.LineageRecord
	if err := cbor.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func EncodeFitnessHistory(history []float64) ([]byte, error) {
	return encMode.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := cbor.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func EncodeGenerationDiagnostics(diagnostics []model.GenerationDiagnostics) ([]byte, error) {
	return encMode.Marshal(diagnostics)
}

func DecodeGenerationDiagnostics(data []byte) ([]model.GenerationDiagnostics, error) {
	var diagnostics []model.GenerationDiagnostics
	if err := cbor.Unmarshal(data, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func decodeVersioned[T any](data []byte, version func(T) model.VersionedRecord) (T, error) {
	var record T
	if err := cbor.Unmarshal(data, &record); err != nil {
		var zero T
		return zero, err
	}
	if err := checkVersion(version(record)); err != nil {
		var zero T
		return zero, err
	}
	return record, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
