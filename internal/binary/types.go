package binary

import "time"

// Release is one entry of the release index. It is decoded fresh on every
// resolution and never mutated.
type Release struct {
	ID       string  `json:"id"`
	Version  string  `json:"version"`
	IsLatest bool    `json:"isLatest"`
	Assets   []Asset `json:"assets"`
}

// Asset is a platform-specific artifact of a release. Its name carries the
// platform tag.
type Asset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// SHA256 is the hex digest of the artifact, when the index publishes one.
	SHA256 string `json:"sha256,omitempty"`
	// SignatureID is the asset id of a detached OpenPGP signature, if any.
	SignatureID string `json:"signatureId,omitempty"`
}

// CacheReason explains a cache decision.
type CacheReason string

const (
	ReasonValid            CacheReason = "valid"
	ReasonMissing          CacheReason = "missing"
	ReasonStatFailed       CacheReason = "stat-failed"
	ReasonPossiblyCorrupt  CacheReason = "possibly-corrupt"
	ReasonChecksumMismatch CacheReason = "checksum-mismatch"
)

// CachedArtifact is the observed local state of an asset.
type CachedArtifact struct {
	Path          string
	Size          int64
	Exists        bool
	NeedsDownload bool
	Reason        CacheReason
}

// VerificationMethod indicates how an artifact was verified.
type VerificationMethod int

const (
	// VerificationNone means the index published nothing to verify against.
	VerificationNone VerificationMethod = iota
	// VerificationGPG indicates OpenPGP signature verification was used
	VerificationGPG
	// VerificationSHA256 indicates SHA256 checksum verification was used
	VerificationSHA256
)

// String returns the string representation of the verification method
func (v VerificationMethod) String() string {
	switch v {
	case VerificationGPG:
		return "GPG"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// VerificationResult contains the outcome of a verification attempt
type VerificationResult struct {
	Method  VerificationMethod
	Success bool
	Error   error
}

// Result describes what EnsureLatest did.
type Result struct {
	Version    string
	AssetID    string
	AssetName  string
	Path       string
	Downloaded bool
	Verified   []VerificationMethod
	Duration   time.Duration
}
