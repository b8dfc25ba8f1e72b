package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDenylisted(t *testing.T) {
	denied := []string{
		".env",
		"config/.env.production",
		"certs/server.PEM",
		"/home/u/.ssh/id_ed25519",
		"/home/u/.aws/credentials",
		"/home/u/.netrc",
		".aider.conf.yml",
	}
	for _, path := range denied {
		assert.True(t, IsDenylisted(path), path)
	}
	allowed := []string{"main.go", "README.md", ".env.example", "/home/u/.ssh/id_ed25519.pub", "docs/environment.md"}
	for _, path := range allowed {
		assert.False(t, IsDenylisted(path), path)
	}
}
