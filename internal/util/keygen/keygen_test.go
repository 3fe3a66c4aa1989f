package keygen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestGenerateEd25519KeyPair(t *testing.T) {
	t.Parallel()

	kp, err := GenerateEd25519KeyPair("spotbuild-test")
	require.NoError(t, err)

	assert.Contains(t, string(kp.PrivateKey), "OPENSSH PRIVATE KEY")
	assert.True(t, strings.HasPrefix(string(kp.PublicKey), "ssh-ed25519 "))

	signer, err := ssh.ParsePrivateKey(kp.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, kp.Signer.PublicKey().Marshal(), signer.PublicKey().Marshal())
}

func TestGenerateEd25519KeyPair_Unique(t *testing.T) {
	t.Parallel()

	a, err := GenerateEd25519KeyPair("")
	require.NoError(t, err)
	b, err := GenerateEd25519KeyPair("")
	require.NoError(t, err)

	assert.NotEqual(t, a.PublicKey, b.PublicKey)
}
