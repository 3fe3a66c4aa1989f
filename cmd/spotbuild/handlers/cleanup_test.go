package handlers

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanup(t *testing.T) {
	tests := []struct {
		name           string
		p              *mockProvisioner
		dryRun         bool
		wantErr        bool
		wantTerminated []string
		wantOutput     string
	}{
		{
			name:       "nothing to do",
			p:          &mockProvisioner{},
			wantOutput: "No leftover instances found",
		},
		{
			name:           "terminates every managed instance",
			p:              &mockProvisioner{managed: []string{"i-1", "i-2"}},
			wantTerminated: []string{"i-1", "i-2"},
			wantOutput:     "Terminated i-2",
		},
		{
			name:       "dry run only lists",
			p:          &mockProvisioner{managed: []string{"i-1"}},
			dryRun:     true,
			wantOutput: "Would terminate i-1",
		},
		{
			name:           "continues after a failure",
			p:              &mockProvisioner{managed: []string{"i-1", "i-2"}, failIDs: map[string]bool{"i-1": true}},
			wantErr:        true,
			wantTerminated: []string{"i-1", "i-2"},
			wantOutput:     "Terminated i-2",
		},
		{
			name:    "list failure",
			p:       &mockProvisioner{listErr: errors.New("unauthorized")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useMocks(t, tt.p, &mockDialer{})

			var out bytes.Buffer
			err := Cleanup(context.Background(), writeConfig(t, testConfigYAML), tt.dryRun, &out)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.ElementsMatch(t, tt.wantTerminated, tt.p.terminated)
			assert.Contains(t, out.String(), tt.wantOutput)
		})
	}
}
