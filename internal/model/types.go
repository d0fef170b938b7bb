package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version" cbor:"schema_version"`
	CodecVersion  int `json:"codec_version" cbor:"codec_version"`
}

// DNARecord is a persisted candidate. Framed holds the sentinel-wrapped wire
// form.
type DNARecord struct {
	VersionedRecord
	ID          string  `json:"id" cbor:"id"`
	Framed      []byte  `json:"framed" cbor:"framed"`
	Alphabet    int     `json:"alphabet" cbor:"alphabet"`
	Fitness     float64 `json:"fitness" cbor:"fitness"`
	Fingerprint string  `json:"fingerprint" cbor:"fingerprint"`
}

type Population struct {
	VersionedRecord
	ID         string   `json:"id" cbor:"id"`
	MemberIDs  []string `json:"member_ids" cbor:"member_ids"`
	Generation int      `json:"generation" cbor:"generation"`
}

type RunRecord struct {
	VersionedRecord
	ID           string  `json:"id" cbor:"id"`
	Strategy     string  `json:"strategy" cbor:"strategy"`
	Environment  string  `json:"environment" cbor:"environment"`
	Seed         int64   `json:"seed" cbor:"seed"`
	Generations  int     `json:"generations" cbor:"generations"`
	Accepted     int     `json:"accepted" cbor:"accepted"`
	BestFitness  float64 `json:"best_fitness" cbor:"best_fitness"`
	BestDNAID    string  `json:"best_dna_id" cbor:"best_dna_id"`
	PopulationID string  `json:"population_id,omitempty" cbor:"population_id,omitempty"`
	CreatedAtUTC string  `json:"created_at_utc" cbor:"created_at_utc"`
}

type GenerationDiagnostics struct {
	Generation           int     `json:"generation" cbor:"generation"`
	BestFitness          float64 `json:"best_fitness" cbor:"best_fitness"`
	MeanFitness          float64 `json:"mean_fitness" cbor:"mean_fitness"`
	MinFitness           float64 `json:"min_fitness" cbor:"min_fitness"`
	Evaluated            int     `json:"evaluated" cbor:"evaluated"`
	Rejected             int     `json:"rejected" cbor:"rejected"`
	FingerprintDiversity int     `json:"fingerprint_diversity" cbor:"fingerprint_diversity"`
}

type LineageRecord struct {
	Fingerprint       string `json:"fingerprint" cbor:"fingerprint"`
	ParentFingerprint string `json:"parent_fingerprint" cbor:"parent_fingerprint"`
	Generation        int    `json:"generation" cbor:"generation"`
	Operation         string `json:"operation" cbor:"operation"`
}
