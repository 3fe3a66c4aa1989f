package handlers

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	var out bytes.Buffer
	err := Validate(context.Background(), writeConfig(t, testConfigYAML), &out)
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "is valid (provider ec2)")
	assert.Contains(t, s, "git clone --branch main https://github.com/acme/api.git app_repo")
	assert.Contains(t, s, "docker login --username acme --password-stdin")
	assert.Contains(t, s, "- acme/api:latest")
	assert.NotContains(t, s, "s3cret")
}

func TestValidate_InvalidConfig(t *testing.T) {
	err := Validate(context.Background(), writeConfig(t, "provider: ec2\n"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ec2.region is required")
}
