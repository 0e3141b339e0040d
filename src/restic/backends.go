package restic

import "strings"

// BackendType names a repository storage backend known to restic.
type BackendType string

const (
	BackendLocal  BackendType = "local"
	BackendSFTP   BackendType = "sftp"
	BackendREST   BackendType = "rest"
	BackendRclone BackendType = "rclone"
	BackendS3     BackendType = "s3"
	BackendAzure  BackendType = "azure"
	BackendB2     BackendType = "b2"
	BackendGS     BackendType = "gs"
)

// Backend describes one supported repository backend: the prefix restic
// expects in front of the repository address and the environment variables
// it reads credentials from.
type Backend struct {
	Type        BackendType `json:"type"`
	Prefix      string      `json:"prefix"`
	DisplayName string      `json:"displayName"`
	Credentials []string    `json:"credentials"`
}

// backends is matched in declaration order; the local backend has no prefix.
var backends = []Backend{
	{Type: BackendLocal, Prefix: "", DisplayName: "Local Path"},
	{Type: BackendSFTP, Prefix: "sftp", DisplayName: "SFTP"},
	{Type: BackendREST, Prefix: "rest", DisplayName: "REST Server",
		Credentials: []string{"RESTIC_REST_USERNAME", "RESTIC_REST_PASSWORD"}},
	{Type: BackendRclone, Prefix: "rclone", DisplayName: "RCLONE"},
	{Type: BackendS3, Prefix: "s3", DisplayName: "Amazon S3",
		Credentials: []string{"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"}},
	{Type: BackendAzure, Prefix: "azure", DisplayName: "Azure Blob Storage",
		Credentials: []string{"AZURE_ACCOUNT_NAME", "AZURE_ACCOUNT_KEY"}},
	{Type: BackendB2, Prefix: "b2", DisplayName: "Backblaze B2",
		Credentials: []string{"B2_ACCOUNT_ID", "B2_ACCOUNT_KEY"}},
	{Type: BackendGS, Prefix: "gs", DisplayName: "Google Cloud Storage",
		Credentials: []string{"GOOGLE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS"}},
}

// Backends returns the supported backends in matching order. The returned
// slice is a copy and may be modified by the caller.
func Backends() []Backend {
	out := make([]Backend, len(backends))
	for i, b := range backends {
		out[i] = b
		out[i].Credentials = append([]string(nil), b.Credentials...)
	}
	return out
}

// LookupBackend returns the backend registered for prefix. The empty prefix
// yields the local backend.
func LookupBackend(prefix string) (Backend, bool) {
	for _, b := range Backends() {
		if b.Prefix == prefix {
			return b, true
		}
	}
	return Backend{}, false
}

// wrapsRclone reports whether a repository with the given prefix is accessed
// through rclone.
func wrapsRclone(prefix string) bool {
	return strings.HasPrefix(prefix, string(BackendRclone))
}
