package repo

import (
	"path/filepath"
	"strings"
)

var (
	deniedNames    = []string{".npmrc", ".pypirc", ".netrc", ".git-credentials", ".aider.conf.yml"}
	deniedSuffixes = []string{".pem", ".key", ".p12", ".pfx", ".kdbx"}
	deniedPrefixes = []string{".env", "id_rsa", "id_ed25519", "id_ecdsa"}
	deniedPaths    = []string{
		filepath.ToSlash(filepath.Join(".aws", "credentials")),
		filepath.ToSlash(filepath.Join(".docker", "config.json")),
		filepath.ToSlash(filepath.Join(".config", "gcloud")),
	}
)

// IsDenylisted reports whether path holds credentials that must never be read
// or handed to a coding tool.
func IsDenylisted(path string) bool {
	lower := strings.ToLower(filepath.ToSlash(path))
	base := strings.ToLower(filepath.Base(path))

	for _, name := range deniedNames {
		if base == name {
			return true
		}
	}
	for _, suffix := range deniedSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	for _, prefix := range deniedPrefixes {
		if strings.HasPrefix(base, prefix) && !strings.HasSuffix(base, ".pub") && base != ".env.example" {
			return true
		}
	}
	for _, p := range deniedPaths {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
